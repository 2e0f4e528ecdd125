package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/apicheck"
	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/config"
	"github.com/felixgeelhaar/legaltime/internal/health"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostics against the configuration and backend",
	Long: `Run diagnostics to check that the client is ready to use.

Checks include:
  • Configuration file and home directory
  • Token store
  • Backend reachability
  • Every endpoint the client calls is published in the backend's OpenAPI document
  • Current session

Examples:
  legaltime doctor
  legaltime doctor --format json
`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().Duration("timeout", 10*time.Second, "how long to wait for the backend")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport represents the complete health check report
type DoctorReport struct {
	Checks    []DoctorCheck      `json:"checks" yaml:"checks"`
	Findings  []apicheck.Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Issues    []string           `json:"issues" yaml:"issues"`
	Warnings  []string           `json:"warnings" yaml:"warnings"`
	NextSteps []string           `json:"next_steps" yaml:"next_steps"`
	Healthy   bool               `json:"healthy" yaml:"healthy"`
}

// DoctorCheck represents a single health check result
type DoctorCheck struct {
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"` // "ok", "warning", "error", "skipped"
	Message string `json:"message" yaml:"message"`
}

func (r *DoctorReport) add(name, status, message string) {
	r.Checks = append(r.Checks, DoctorCheck{Name: name, Status: status, Message: message})
	switch status {
	case "error":
		r.Issues = append(r.Issues, name+": "+message)
	case "warning":
		r.Warnings = append(r.Warnings, name+": "+message)
	}
}

func (r *DoctorReport) String() string {
	t := ux.NewTable("CHECK", "STATUS", "DETAILS")
	for _, c := range r.Checks {
		t.Append(c.Name, c.Status, c.Message)
	}

	var b strings.Builder
	b.WriteString(t.String())
	for _, f := range r.Findings {
		if f.Severity == "error" {
			fmt.Fprintf(&b, "\n  missing: %s", f.Endpoint)
		}
	}
	if len(r.NextSteps) > 0 {
		b.WriteString("\n\nNext steps:")
		for _, s := range r.NextSteps {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}
	if r.Healthy {
		b.WriteString("\n\nAll checks passed.")
	}
	return b.String()
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	report := &DoctorReport{Issues: []string{}, Warnings: []string{}, NextSteps: []string{}}

	cfg, err := cc.Config()
	if err != nil {
		report.add("Configuration", "error", err.Error())
		report.NextSteps = append(report.NextSteps, "Fix "+config.Path(cc.Home)+" or reset a key with 'legaltime config set'")
		return finishDoctor(cc, report)
	}
	checkConfig(cc, report)

	a, err := app.New(cfg, cc.Home)
	if err != nil {
		report.add("Backend", "error", err.Error())
		return finishDoctor(cc, report)
	}
	defer a.Close()

	// Hydration is local, so the session check can run alongside the others.
	a.Boot(cmd.Context())

	m := health.NewManager().WithTimeout(timeout)
	m.AddChecker(health.NewStoreChecker(a.Store))
	m.AddChecker(health.NewBackendChecker(a.Gateway, a.Gateway.BaseURL()))
	m.AddChecker(health.NewSessionChecker(a.Session))

	for _, r := range m.Check(cmd.Context()) {
		report.addResult(r)
	}
	return finishDoctor(cc, report)
}

// addResult records a check, its contract findings and its remedy.
func (r *DoctorReport) addResult(hr health.Report) {
	status := "ok"
	switch hr.Status {
	case health.StatusDegraded:
		status = "warning"
	case health.StatusUnhealthy:
		status = "error"
	case health.StatusSkipped:
		status = "skipped"
	}
	r.add(hr.Name, status, hr.Message)

	if findings, ok := hr.Details["findings"].([]apicheck.Finding); ok {
		r.Findings = findings
		for _, f := range findings {
			if f.Severity == "warning" {
				r.Warnings = append(r.Warnings, f.Message)
			}
		}
	}
	if hr.NextStep != "" {
		r.NextSteps = append(r.NextSteps, hr.NextStep)
	}
}

func finishDoctor(cc *CommandContext, report *DoctorReport) error {
	report.Healthy = len(report.Issues) == 0
	if err := cc.Output(report); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("doctor found %d problem(s)", len(report.Issues))
	}
	return nil
}

func checkConfig(cc *CommandContext, report *DoctorReport) {
	path := config.Path(cc.Home)
	if _, err := os.Stat(path); err != nil {
		report.add("Configuration", "ok", "using defaults, no file at "+path)
		return
	}
	report.add("Configuration", "ok", path)
}
