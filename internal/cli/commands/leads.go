package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/cli/output"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"github.com/spf13/cobra"
)

// NewLeadsCommand creates the leads command and its subcommands.
func NewLeadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List, upload, enrich and delete leads",
		Long: `Work with the leads stored by the backend.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
	}

	cmd.AddCommand(newLeadsListCommand())
	cmd.AddCommand(newLeadsShowCommand())
	cmd.AddCommand(newLeadsUploadCommand())
	cmd.AddCommand(newLeadsEnrichCommand())
	cmd.AddCommand(newLeadsDeleteCommand())
	cmd.AddCommand(newLeadsStatusCommand())
	cmd.AddCommand(newLeadsRetryCommand())

	return cmd
}

// ListOptions holds options for the leads list command.
type ListOptions struct {
	Page  int
	All   bool
	Skip  int
	Limit int
}

// leadList is the json/yaml shape of leads list.
type leadList struct {
	Leads     []lead.Lead `json:"leads" yaml:"leads"`
	Total     int         `json:"total" yaml:"total"`
	Page      int         `json:"page" yaml:"page"`
	PageCount int         `json:"page_count" yaml:"page_count"`
}

func newLeadsListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads with their enrichment status",
		Example: `  # First page of leads
  leadsync leads list

  # Third page
  leadsync leads list --page 3

  # Every lead as JSON
  leadsync leads list --all -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeadsList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page to show (1-based)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Show every loaded lead instead of one page")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "Leads to skip on the server")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum leads to fetch from the server")

	return cmd
}

func runLeadsList(cmd *cobra.Command, opts *ListOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	var listOpts []api.ListOption
	if cmd.Flags().Changed("skip") {
		listOpts = append(listOpts, api.WithSkip(opts.Skip))
	}
	if cmd.Flags().Changed("limit") {
		listOpts = append(listOpts, api.WithLimit(opts.Limit))
	}

	store := table.New(c.Client, append(c.TableOptions(), table.WithListOptions(listOpts...))...)
	if err := store.Load(cmd.Context()); err != nil {
		return err
	}
	if opts.Page > 1 {
		store.SetPage(opts.Page - 1)
	}
	view := store.View()

	var leads []lead.Lead
	if opts.All {
		leads = store.Leads()
	} else {
		leads = make([]lead.Lead, 0, len(view.Rows))
		for _, row := range view.Rows {
			leads = append(leads, row.Lead)
		}
	}

	if handled, err := r.Data(leadList{
		Leads:     leads,
		Total:     view.Total,
		Page:      view.Page + 1,
		PageCount: view.PageCount,
	}); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Leads (%d total)", view.Total))
	if view.Empty() {
		r.Println("No leads found. Upload a CSV file to get started.")
		return nil
	}

	renderLeadTable(r, leads)
	if !opts.All {
		r.Println(r.Muted(fmt.Sprintf("Showing %d-%d of %d (page %d/%d)",
			view.FirstRow(), view.LastRow(), view.Total, view.Page+1, view.PageCount)))
	}
	return nil
}

func renderLeadTable(r *output.Renderer, leads []lead.Lead) {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			strconv.Itoa(l.ID),
			l.FullName(),
			lead.Display(l.Company),
			lead.Display(l.Email),
			r.Styles().Status(l.Status),
		})
	}
	r.Table([]string{"ID", "Name", "Company", "Email", "Status"}, rows)
}

func newLeadsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one lead including enriched data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeadID(args[0])
			if err != nil {
				return err
			}
			return runLeadsShow(cmd, id)
		},
	}
}

func runLeadsShow(cmd *cobra.Command, id int) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	l, err := c.Client.GetLead(cmd.Context(), id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(l)
	}
	if r.EffectiveMode() == output.ModeYAML {
		// enriched_data is opaque JSON; expose it decoded for yaml
		var enriched any
		if l.Enriched.Present() {
			_ = l.Enriched.Decode(&enriched)
		}
		return r.YAML(struct {
			Lead     lead.Lead `yaml:",inline"`
			Enriched any       `yaml:"enriched_data"`
		}{*l, enriched})
	}

	r.Header(1, fmt.Sprintf("Lead %d: %s", l.ID, l.FullName()))
	r.KeyValues([][2]string{
		{"Company", lead.Display(l.Company)},
		{"Title", lead.Display(l.Title)},
		{"Email", lead.Display(l.Email)},
		{"Phone", lead.Display(l.Phone)},
		{"Website", lead.Display(l.Website)},
		{"LinkedIn", lead.Display(l.LinkedInURL)},
		{"Status", r.Styles().Status(l.Status)},
		{"Created", l.CreatedAt},
		{"Updated", l.UpdatedAt},
	})

	switch l.Enriched.Kind() {
	case lead.KindObject:
		keys := l.Enriched.Keys()
		r.Println("")
		r.Header(2, "Enriched data")
		r.Println(strings.Join(keys, ", "))
	case lead.KindAbsent, lead.KindNull:
		r.Println(r.Muted("No enriched data yet"))
	default:
		r.Println("")
		r.Header(2, "Enriched data")
		r.Println(string(l.Enriched.Raw()))
	}
	return nil
}

func parseLeadID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lead id %q", s)
	}
	return id, nil
}

func parseLeadIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := parseLeadID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
