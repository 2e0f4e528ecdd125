package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

// DefaultReportFile is where entries report writes without --output.
const DefaultReportFile = "time_report.xlsx"

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"time-entries"},
	Short:   "Work with time entries",
	Long: `Work with time entries.

Everyone can list their own entries. Senior lawyers and administrators can
search across employees, approve drafts and export the approved-hours
report; senior lawyers cannot approve their own entries. Administrators can
recalculate the rate of every entry.

Examples:
  legaltime entries list
  legaltime entries list --employee 7 --from 2024-05-01 --status draft
  legaltime entries pending
  legaltime entries approve 42
  legaltime entries report --from 2024-05-01 --to 2024-05-31 -o may.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your entries, or search across employees",
	Args:  cobra.NoArgs,
	RunE:  runEntriesList,
}

var entriesPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List draft entries awaiting approval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapReviewTimeEntries); err != nil {
			return err
		}
		entries, err := a.API.TimeEntries.Pending(cmd.Context(), pageFlags(cmd))
		if err != nil {
			return err
		}
		return cc.Output(ux.TimeEntries(entries))
	},
}

var entriesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapViewTimeEntries); err != nil {
			return err
		}
		entry, err := a.API.TimeEntries.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(entry)
		}
		return cc.Output(ux.TimeEntryFields(*entry))
	},
}

var entriesApproveCmd = &cobra.Command{
	Use:   "approve <id>...",
	Short: "Approve draft entries",
	Long: `Approve one or more draft entries. Each entry is fetched first so
that senior lawyers are stopped before approving their own work.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEntriesApprove,
}

var entriesReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download the approved-hours spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  runEntriesReport,
}

var entriesRecalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Recalculate the rate of every entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapRecalculateRates); err != nil {
			return err
		}
		res, err := a.API.TimeEntries.RecalculateRates(cmd.Context())
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(res)
		}
		return cc.Output(ux.RecalculateFields(*res))
	},
}

func init() {
	addPageFlags(entriesListCmd)
	entriesListCmd.Flags().Int("employee", 0, "only entries of this employee")
	entriesListCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	entriesListCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	entriesListCmd.Flags().String("status", "", "draft or approved")

	addPageFlags(entriesPendingCmd)

	entriesReportCmd.Flags().Int("employee", 0, "only hours of this employee")
	entriesReportCmd.Flags().Int("matter", 0, "only hours on this matter")
	entriesReportCmd.Flags().Int("contract", 0, "only hours under this contract")
	entriesReportCmd.Flags().Int("client", 0, "only hours for this client")
	entriesReportCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	entriesReportCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	entriesReportCmd.Flags().StringP("output", "o", DefaultReportFile, "file to write")

	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesPendingCmd)
	entriesCmd.AddCommand(entriesShowCmd)
	entriesCmd.AddCommand(entriesApproveCmd)
	entriesCmd.AddCommand(entriesReportCmd)
	entriesCmd.AddCommand(entriesRecalculateCmd)

	rootCmd.AddCommand(entriesCmd)
}

func addPageFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int("skip", 0, "number of records to skip")
	fs.Int("limit", 0, "maximum number of records (backend default when 0)")
}

func pageFlags(cmd *cobra.Command) api.Page {
	skip, _ := cmd.Flags().GetInt("skip")
	limit, _ := cmd.Flags().GetInt("limit")
	return api.Page{Skip: skip, Limit: limit}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, ValidationError("id", s, "a positive integer")
	}
	return id, nil
}

// intFlag returns nil for an unset or zero id flag.
func intFlag(cmd *cobra.Command, name string) *int {
	v, _ := cmd.Flags().GetInt(name)
	if v <= 0 {
		return nil
	}
	return &v
}

func dateFlag(cmd *cobra.Command, name string) (api.Date, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return api.Date{}, nil
	}
	d, err := api.ParseDate(s)
	if err != nil {
		return api.Date{}, ValidationError("--"+name, s, "a date as YYYY-MM-DD")
	}
	return d, nil
}

func runEntriesList(cmd *cobra.Command, args []string) error {
	from, err := dateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := dateFlag(cmd, "to")
	if err != nil {
		return err
	}
	status, _ := cmd.Flags().GetString("status")
	switch api.EntryStatus(status) {
	case "", api.StatusDraft, api.StatusApproved:
	default:
		return ValidationError("--status", status, "draft, approved")
	}

	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Require(authz.CapViewTimeEntries); err != nil {
		return err
	}

	filter := api.EntryFilter{
		EmployeeID: intFlag(cmd, "employee"),
		StartDate:  from,
		EndDate:    to,
		Status:     api.EntryStatus(status),
		Page:       pageFlags(cmd),
	}

	var entries []api.TimeEntry
	if filter.EmployeeID == nil && from.IsZero() && to.IsZero() && status == "" {
		entries, err = a.API.TimeEntries.Mine(cmd.Context(), filter.Page)
	} else {
		if err := a.Require(authz.CapReviewTimeEntries); err != nil {
			return err
		}
		entries, err = a.API.TimeEntries.Filter(cmd.Context(), filter)
	}
	if err != nil {
		return err
	}
	return cc.Output(ux.TimeEntries(entries))
}

func runEntriesApprove(cmd *cobra.Command, args []string) error {
	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var approved ux.TimeEntries
	var firstErr error
	for _, id := range ids {
		entry, err := a.Approve(cmd.Context(), id)
		if err != nil {
			// A rejected session or missing capability fails every id alike.
			if errors.IsAuthRejected(err) || errors.HasCode(err, errors.ErrCodeNotLoggedIn) ||
				errors.HasCode(err, errors.ErrCodePolicyDenied) {
				return err
			}
			if cc.Text() {
				fmt.Fprintln(cmd.ErrOrStderr(), ux.RenderError(err, cc.NoColor))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		approved = append(approved, *entry)
	}

	if len(approved) > 0 || !cc.Text() {
		if err := cc.Output(approved); err != nil {
			return err
		}
	}
	return firstErr
}

func runEntriesReport(cmd *cobra.Command, args []string) error {
	from, err := dateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := dateFlag(cmd, "to")
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")

	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Require(authz.CapRunReports); err != nil {
		return err
	}

	filter := api.ReportFilter{
		EmployeeID: intFlag(cmd, "employee"),
		MatterID:   intFlag(cmd, "matter"),
		ContractID: intFlag(cmd, "contract"),
		ClientID:   intFlag(cmd, "client"),
		StartDate:  from,
		EndDate:    to,
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create report directory", err)
		}
	}
	tmp := out + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create report file", err)
	}

	n, err := a.API.TimeEntries.Report(cmd.Context(), filter, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write report file", cerr)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write report file", err)
	}

	if !cc.Text() {
		return cc.Output(map[string]interface{}{"path": out, "bytes": n})
	}
	return cc.Output(fmt.Sprintf("Saved report to %s (%d bytes).", out, n))
}
