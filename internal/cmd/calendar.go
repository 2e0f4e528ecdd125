package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Synchronise time entries with Google Calendar",
	Long: `Synchronise time entries with Google Calendar.

Connect once by opening the consent URL printed by 'calendar connect'.
'push' creates events for entries that have none; 'pull' creates draft
entries from events around today.

Examples:
  legaltime calendar connect
  legaltime calendar push
  legaltime calendar pull --days-back 7 --days-forward 0
  legaltime calendar events --max 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var calendarConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Print the Google consent URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapViewTimeEntries); err != nil {
			return err
		}
		u, err := a.API.Calendar.ConnectURL(cmd.Context())
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(map[string]string{"url": u})
		}
		return cc.Output("Open this URL to connect your calendar:\n" + u)
	},
}

var calendarPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Create calendar events for your entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapViewTimeEntries); err != nil {
			return err
		}
		res, err := a.API.Calendar.Push(cmd.Context())
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(res)
		}
		return cc.Output(ux.SyncFields(*res))
	},
}

var calendarPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Create draft entries from calendar events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		back, _ := cmd.Flags().GetInt("days-back")
		forward, _ := cmd.Flags().GetInt("days-forward")
		if back < 0 || forward < 0 {
			return ValidationError("--days-back/--days-forward", "negative", "zero or more days")
		}

		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapViewTimeEntries); err != nil {
			return err
		}
		res, err := a.API.Calendar.Pull(cmd.Context(), back, forward)
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(res)
		}
		return cc.Output(ux.SyncFields(*res))
	},
}

var calendarEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List calendar events linked to entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max")

		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Require(authz.CapViewTimeEntries); err != nil {
			return err
		}
		res, err := a.API.Calendar.Events(cmd.Context(), max)
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(res)
		}
		return cc.Output(ux.CalendarEvents(res.Events))
	},
}

func init() {
	calendarPullCmd.Flags().Int("days-back", 0, "days before today to import (backend default 30)")
	calendarPullCmd.Flags().Int("days-forward", 0, "days after today to import (backend default 30)")
	calendarEventsCmd.Flags().Int("max", 0, "maximum number of events")

	calendarCmd.AddCommand(calendarConnectCmd)
	calendarCmd.AddCommand(calendarPushCmd)
	calendarCmd.AddCommand(calendarPullCmd)
	calendarCmd.AddCommand(calendarEventsCmd)

	rootCmd.AddCommand(calendarCmd)
}
