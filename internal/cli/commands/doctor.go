package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/cli/config"
	"github.com/leapstack-labs/leadsync/internal/cli/output"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and backend connectivity",
		Long: `Check that leadsync is configured correctly and can reach the backend.

The doctor command reports:
- Which config file is in use and whether it is valid
- Backend health and whether leads can be listed
- Whether the drop folder exists

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  leadsync doctor
  leadsync doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Checks  []HealthCheck `json:"checks" yaml:"checks"`
	Healthy bool          `json:"healthy" yaml:"healthy"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	c := NewCommandContext(cmd)
	ctx := cmd.Context()
	cfg := c.Cfg

	out := &DoctorOutput{BaseURL: cfg.API.BaseURL, Healthy: true}
	add := func(name, status, detail string) {
		out.Checks = append(out.Checks, HealthCheck{Name: name, Status: status, Detail: detail})
		if status == checkFail {
			out.Healthy = false
		}
	}

	if f := config.GetConfigFileUsed(); f != "" {
		add("config file", checkPass, f)
	} else {
		add("config file", checkWarn, "none found, using defaults and environment")
	}
	if err := cfg.Validate(); err != nil {
		add("configuration", checkFail, err.Error())
	} else {
		add("configuration", checkPass, "")
	}

	if h, err := c.Client.Health(ctx); err != nil {
		add("backend health", checkFail, err.Error())
	} else {
		add("backend health", checkPass, h.Status)
	}

	if leads, err := c.Client.ListLeads(ctx, api.WithLimit(1)); err != nil {
		add("list leads", checkFail, err.Error())
	} else {
		add("list leads", checkPass, fmt.Sprintf("%d returned", len(leads)))
	}

	if info, err := os.Stat(cfg.Watch.Dir); err != nil || !info.IsDir() {
		add("drop folder", checkWarn, cfg.Watch.Dir+" does not exist yet (created by 'leadsync watch')")
	} else {
		add("drop folder", checkPass, cfg.Watch.Dir)
	}

	if err := renderDoctor(c.Renderer, out); err != nil {
		return err
	}
	if !out.Healthy {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) error {
	if handled, err := r.Data(out); handled {
		return err
	}

	r.Header(1, "leadsync doctor")
	r.Println(r.Muted("Backend: " + out.BaseURL))
	r.Println("")

	styles := r.Styles()
	rows := make([][]string, 0, len(out.Checks))
	for _, ch := range out.Checks {
		status := ch.Status
		switch ch.Status {
		case checkPass:
			status = styles.Success.Render(status)
		case checkWarn:
			status = styles.Warning.Render(status)
		case checkFail:
			status = styles.Error.Render(status)
		}
		rows = append(rows, []string{ch.Name, status, ch.Detail})
	}
	r.Table([]string{"Check", "Status", "Detail"}, rows)
	return nil
}
