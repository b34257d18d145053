package table

import "context"

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Always answers every prompt with the same value. Useful when the
// question was already asked elsewhere (a --yes flag, a browser dialog).
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}
