// Package upload implements the single-file CSV upload flow.
//
// A Flow moves Idle -> FileSelected -> Uploading -> Done. A failed upload
// returns to FileSelected with the file still staged so it can be retried.
// Cancel ends the flow without contacting the server.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// Sentinel errors.
var (
	ErrNoFile = errors.New("no file selected")
	ErrNotCSV = errors.New("only CSV files are accepted")
	ErrBusy   = errors.New("upload in progress")
)

// State of a Flow.
type State int

// Flow states.
const (
	Idle State = iota
	FileSelected
	Uploading
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file-selected"
	case Uploading:
		return "uploading"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// File is a candidate upload held in memory.
type File struct {
	Name string
	Data []byte
}

// OpenFile reads path into a File named after its base name.
func OpenFile(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Size returns the file length in bytes.
func (f File) Size() int {
	return len(f.Data)
}

// Uploader is the part of the API client a Flow needs.
type Uploader interface {
	UploadCSV(ctx context.Context, name string, r io.Reader) (*lead.UploadResult, error)
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the flow's logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// OnSuccess registers the callback fired after a successful upload.
func OnSuccess(fn func(*lead.UploadResult)) Option {
	return func(f *Flow) { f.onSuccess = fn }
}

// OnError registers the callback fired after a failed upload.
func OnError(fn func(error)) Option {
	return func(f *Flow) { f.onError = fn }
}

// OnCancel registers the callback fired when the flow is cancelled.
func OnCancel(fn func()) Option {
	return func(f *Flow) { f.onCancel = fn }
}

// OnChange registers a callback fired after every state transition.
func OnChange(fn func(State)) Option {
	return func(f *Flow) { f.onChange = fn }
}

// Flow is one upload modal session. Safe for concurrent use.
type Flow struct {
	up     Uploader
	logger *slog.Logger

	onSuccess func(*lead.UploadResult)
	onError   func(error)
	onCancel  func()
	onChange  func(State)

	mu        sync.Mutex
	state     State
	file      *File
	discarded []string
	lastErr   error
	result    *lead.UploadResult
}

// New creates an idle flow.
func New(up Uploader, opts ...Option) *Flow {
	f := &Flow{
		up:     up,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot is a read-only view of a Flow.
type Snapshot struct {
	State     State
	FileName  string
	FileSize  int
	Discarded []string
	Err       string
	Result    *lead.UploadResult
}

// Snapshot returns the current flow state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		State:     f.state,
		Discarded: append([]string(nil), f.discarded...),
		Result:    f.result,
	}
	if f.file != nil {
		s.FileName = f.file.Name
		s.FileSize = f.file.Size()
	}
	if f.lastErr != nil {
		s.Err = f.lastErr.Error()
	}
	return s
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Staged returns the staged file, if any.
func (f *Flow) Staged() (File, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return File{}, false
	}
	return *f.file, true
}

// Select stages the first of files and silently discards the rest.
// An empty call is a no-op.
func (f *Flow) Select(files ...File) error {
	if len(files) == 0 {
		return nil
	}
	first := files[0]
	if err := CheckCSV(first); err != nil {
		return err
	}

	f.mu.Lock()
	if f.state == Uploading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.file = &first
	f.discarded = f.discarded[:0]
	for _, extra := range files[1:] {
		f.discarded = append(f.discarded, extra.Name)
	}
	f.lastErr = nil
	f.result = nil
	f.state = FileSelected
	f.mu.Unlock()

	if len(files) > 1 {
		f.logger.Debug("extra files discarded", "kept", first.Name, "discarded", len(files)-1)
	}
	f.changed(FileSelected)
	return nil
}

// Confirm uploads the staged file.
func (f *Flow) Confirm(ctx context.Context) (*lead.UploadResult, error) {
	f.mu.Lock()
	switch f.state {
	case Uploading:
		f.mu.Unlock()
		return nil, ErrBusy
	case FileSelected:
	default:
		f.mu.Unlock()
		return nil, ErrNoFile
	}
	file := *f.file
	f.state = Uploading
	f.lastErr = nil
	f.mu.Unlock()
	f.changed(Uploading)

	f.logger.Info("uploading csv", "file", file.Name, "bytes", file.Size())
	res, err := f.up.UploadCSV(ctx, file.Name, bytes.NewReader(file.Data))

	f.mu.Lock()
	if err != nil {
		f.state = FileSelected
		f.lastErr = err
	} else {
		f.state = Done
		f.result = res
	}
	state := f.state
	f.mu.Unlock()
	f.changed(state)

	if err != nil {
		f.logger.Error("upload failed", "file", file.Name, "error", err)
		if f.onError != nil {
			f.onError(err)
		}
		return nil, fmt.Errorf("upload %s: %w", file.Name, err)
	}

	f.logger.Info("upload done", "file", file.Name, "count", res.Count)
	if f.onSuccess != nil {
		f.onSuccess(res)
	}
	return res, nil
}

// Cancel discards any staged file and ends the flow.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	if f.state == Uploading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.file = nil
	f.discarded = nil
	f.state = Cancelled
	f.mu.Unlock()
	f.changed(Cancelled)

	if f.onCancel != nil {
		f.onCancel()
	}
	return nil
}

func (f *Flow) changed(s State) {
	if f.onChange != nil {
		f.onChange(s)
	}
}

// CheckCSV accepts a file with a .csv extension whose content sniffs as text.
func CheckCSV(file File) error {
	if !strings.EqualFold(filepath.Ext(file.Name), ".csv") {
		return fmt.Errorf("%s: %w", file.Name, ErrNotCSV)
	}
	if len(file.Data) == 0 {
		return nil
	}
	for mt := mimetype.Detect(file.Data); mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "text/") {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", file.Name, ErrNotCSV)
}
