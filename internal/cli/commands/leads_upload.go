package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/cli/output"
	"github.com/leapstack-labs/leadsync/internal/page"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"github.com/spf13/cobra"
)

func newLeadsUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>...",
		Short: "Upload a CSV file of leads",
		Long: `Upload a CSV file of leads to the backend.

Only one file is uploaded per call; extra files are reported and skipped.
Recognized columns: ` + strings.Join(lead.Columns, ", "),
		Example: `  leadsync leads upload contacts.csv`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeadsUpload(cmd, args)
		},
	}
}

func runLeadsUpload(cmd *cobra.Command, paths []string) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		f, err := upload.OpenFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	res, err := uploadFiles(cmd.Context(), c.Client, c.Logger, r, files...)
	if err != nil {
		return err
	}

	if handled, err := r.Data(res); handled {
		return err
	}
	r.Success(fmt.Sprintf("%s (%d leads)", res.Message, res.Count))
	return nil
}

// uploadFiles runs one upload flow, reporting preview and discard warnings
// through r.
func uploadFiles(ctx context.Context, client *api.Client, logger *slog.Logger, r *output.Renderer, files ...upload.File) (*lead.UploadResult, error) {
	flow := upload.New(client, upload.WithLogger(logger.With("component", "upload")))
	if err := flow.Select(files...); err != nil {
		return nil, err
	}

	snap := flow.Snapshot()
	for _, name := range snap.Discarded {
		r.Warning(fmt.Sprintf("skipping %s: only one file is uploaded at a time", name))
	}

	if staged, ok := flow.Staged(); ok {
		if p, err := upload.Inspect(staged); err != nil {
			r.Warning(fmt.Sprintf("could not preview %s: %v", staged.Name, err))
		} else if !p.Usable() {
			r.Warning(fmt.Sprintf("%s has no recognized columns (expected any of: %s)",
				staged.Name, strings.Join(lead.Columns, ", ")))
		} else {
			logger.Debug("csv preview", "file", staged.Name, "rows", p.Rows, "recognized", p.Recognized)
		}
	}

	res, err := flow.Confirm(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", page.MsgUploadFailed, err)
	}
	return res, nil
}
