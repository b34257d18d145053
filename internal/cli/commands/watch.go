package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/leadsync/internal/dropzone"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Dir string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Upload every CSV dropped into a folder",
		Long: `Watch a folder and upload each CSV file that appears in it.

Files already in the folder are uploaded on start. After an upload the file
is moved to processed/ on success or failed/ on error, inside the inbox.`,
		Example: `  # Watch ./inbox (or watch.dir from config)
  leadsync watch

  # Watch another folder
  leadsync watch --dir ~/Downloads/leads`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Inbox folder (default: watch.dir)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	dir := c.Cfg.Watch.Dir
	if opts.Dir != "" {
		dir = opts.Dir
	}

	handle := func(ctx context.Context, path string) error {
		f, err := upload.OpenFile(path)
		if err != nil {
			return err
		}

		res, err := uploadFiles(ctx, c.Client, c.Logger, r, f)
		if err != nil {
			r.Error(fmt.Sprintf("%s: %v", filepath.Base(path), err))
			if _, mvErr := dropzone.MoveTo(path, dropzone.FailedDir); mvErr != nil {
				return mvErr
			}
			return err
		}

		r.Success(fmt.Sprintf("%s: %s (%d leads)", filepath.Base(path), res.Message, res.Count))
		_, err = dropzone.MoveTo(path, dropzone.ProcessedDir)
		return err
	}

	w := dropzone.New(dir, handle, c.Logger.With("component", "dropzone"))
	r.Println(fmt.Sprintf("Watching %s for CSV files", dir))
	r.Println("Press Ctrl+C to stop")
	return w.Run(cmd.Context())
}
