package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrConfirmationRequired is returned when deletion needs a prompt but
// stdin is not a terminal.
var ErrConfirmationRequired = errors.New("refusing to delete without confirmation: stdin is not a terminal (pass --yes)")

// DeleteOptions holds options for the leads delete command.
type DeleteOptions struct {
	Yes bool
}

func newLeadsDeleteCommand() *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lead",
		Example: `  # Asks for confirmation
  leadsync leads delete 12

  # Scripted
  leadsync leads delete 12 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeadID(args[0])
			if err != nil {
				return err
			}
			return runLeadsDelete(cmd, id, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runLeadsDelete(cmd *cobra.Command, id int, opts *DeleteOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	confirm, err := deleteConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), opts.Yes)
	if err != nil {
		return err
	}

	store := table.New(c.Client, c.TableOptions()...)
	err = store.DeleteRow(cmd.Context(), id, confirm)
	if errors.Is(err, table.ErrDeclined) {
		r.Println("Cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	if handled, err := r.Data(map[string]any{"deleted": id}); handled {
		return err
	}
	r.Success(fmt.Sprintf("Deleted lead %d", id))
	return nil
}

// deleteConfirmer picks how a deletion is confirmed: --yes skips the
// prompt, a terminal gets a y/N prompt, anything else is refused.
func deleteConfirmer(in io.Reader, out io.Writer, yes bool) (table.Confirmer, error) {
	if yes {
		return table.Always(true), nil
	}
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return nil, ErrConfirmationRequired
	}
	return promptConfirmer(f, out), nil
}

// promptConfirmer asks a y/N question with readline. Anything but y or yes
// declines, as does Ctrl-C or EOF.
func promptConfirmer(in io.ReadCloser, out io.Writer) table.ConfirmFunc {
	return func(_ context.Context, prompt string) (bool, error) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt + " [y/N] ",
			Stdin:           in,
			Stdout:          out,
			InterruptPrompt: "^C",
		})
		if err != nil {
			return false, fmt.Errorf("failed to initialize prompt: %w", err)
		}
		defer func() { _ = rl.Close() }()

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return isYes(line), nil
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
