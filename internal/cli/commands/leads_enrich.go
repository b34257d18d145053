package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/leapstack-labs/leadsync/internal/cli/output"
	"github.com/leapstack-labs/leadsync/internal/poller"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"github.com/spf13/cobra"
)

// EnrichOptions holds options for the leads enrich command.
type EnrichOptions struct {
	All   bool
	Watch bool
}

// enrichOutput is the json/yaml shape of leads enrich.
type enrichOutput struct {
	Message   string              `json:"message" yaml:"message"`
	TaskIDs   []string            `json:"task_ids" yaml:"task_ids"`
	LeadCount int                 `json:"lead_count" yaml:"lead_count"`
	Final     map[int]lead.Status `json:"final_status,omitempty" yaml:"final_status,omitempty"`
}

func newLeadsEnrichCommand() *cobra.Command {
	opts := &EnrichOptions{}

	cmd := &cobra.Command{
		Use:   "enrich [id]...",
		Short: "Start enrichment for selected leads",
		Long: `Start apollo, email and ai enrichment for the given leads.

With --watch the command polls enrichment status until every lead has
completed or failed, then prints the final statuses.`,
		Example: `  # Enrich two leads
  leadsync leads enrich 4 7

  # Enrich everything and wait for the result
  leadsync leads enrich --all --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeadsEnrich(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Enrich every loaded lead")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Poll status until enrichment finishes")

	return cmd
}

func runLeadsEnrich(cmd *cobra.Command, args []string, opts *EnrichOptions) error {
	switch {
	case opts.All && len(args) > 0:
		return errors.New("pass lead ids or --all, not both")
	case !opts.All && len(args) == 0:
		return errors.New("pass at least one lead id or --all")
	}
	ids, err := parseLeadIDs(args)
	if err != nil {
		return err
	}

	c := NewCommandContext(cmd)
	r := c.Renderer
	ctx := cmd.Context()

	store := table.New(c.Client, c.TableOptions()...)
	if err := store.Load(ctx); err != nil {
		return err
	}

	loaded := make(map[int]bool)
	for _, l := range store.Leads() {
		loaded[l.ID] = true
	}
	if opts.All {
		for id := range loaded {
			store.SetSelected(id, true)
		}
	}
	for _, id := range ids {
		if !loaded[id] {
			return fmt.Errorf("lead %d not found", id)
		}
		store.SetSelected(id, true)
	}
	selected := store.SelectedIDs()

	res, err := store.EnrichSelected(ctx)
	if errors.Is(err, table.ErrNoSelection) {
		return errors.New(table.MsgSelectFirst)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", table.MsgEnrichFailed, err)
	}

	out := enrichOutput{Message: res.Message, TaskIDs: res.TaskIDs, LeadCount: res.LeadCount}
	if opts.Watch {
		if r.EffectiveMode() == output.ModeText {
			r.Println(r.Muted(fmt.Sprintf("Waiting for %d leads...", len(selected))))
		}
		p := poller.New(c.Client, c.PollOptions())
		final, err := p.Watch(ctx, selected, func() {
			c.Logger.Debug("enrichment status changed")
		})
		out.Final = final
		if err != nil {
			_ = renderEnrich(r, out)
			return fmt.Errorf("stopped waiting for enrichment: %w", err)
		}
	}

	return renderEnrich(r, out)
}

func renderEnrich(r *output.Renderer, out enrichOutput) error {
	if handled, err := r.Data(out); handled {
		return err
	}

	r.Success(fmt.Sprintf("%s (%d leads, %d tasks)", out.Message, out.LeadCount, len(out.TaskIDs)))
	if out.Final == nil {
		return nil
	}

	ids := make([]int, 0, len(out.Final))
	for id := range out.Final {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{strconv.Itoa(id), r.Styles().Status(out.Final[id])})
	}
	r.Table([]string{"ID", "Status"}, rows)
	return nil
}

func newLeadsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show enrichment status and tasks of a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeadID(args[0])
			if err != nil {
				return err
			}
			return runLeadsStatus(cmd, id)
		},
	}
}

func runLeadsStatus(cmd *cobra.Command, id int) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	rep, err := c.Client.EnrichmentStatus(cmd.Context(), id)
	if err != nil {
		return err
	}
	if handled, err := r.Data(rep); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Enrichment status of lead %d", rep.LeadID))
	r.KeyValues([][2]string{
		{"Overall", r.Styles().Status(rep.OverallStatus)},
		{"Tasks", strconv.Itoa(len(rep.Tasks))},
	})
	if len(rep.Tasks) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(rep.Tasks))
	for _, task := range rep.Tasks {
		rows = append(rows, []string{
			task.Type,
			r.Styles().Status(task.Status),
			lead.Display(task.CreatedAt),
			lead.Display(task.CompletedAt),
			lead.Display(task.ErrorMessage),
		})
	}
	r.Println("")
	r.Table([]string{"Task", "Status", "Created", "Completed", "Error"}, rows)
	return nil
}

func newLeadsRetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Retry failed enrichment tasks of a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeadID(args[0])
			if err != nil {
				return err
			}

			c := NewCommandContext(cmd)
			res, err := c.Client.RetryEnrichment(cmd.Context(), id)
			if err != nil {
				return err
			}
			if handled, err := c.Renderer.Data(res); handled {
				return err
			}
			c.Renderer.Success(fmt.Sprintf("%s (%d tasks)", res.Message, len(res.TaskIDs)))
			return nil
		},
	}
}
