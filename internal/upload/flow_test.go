package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/testutil"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
}

func (f *fakeUploader) UploadCSV(_ context.Context, name string, r io.Reader) (*lead.UploadResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	_, _ = io.ReadAll(r)
	return &lead.UploadResult{Message: "ok", Count: 2}, nil
}

func (f *fakeUploader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var sampleCSV = []byte("first_name,last_name,email\nAda,Lovelace,ada@example.com\nAlan,Turing,alan@example.com\n")

func csvFile(name string) File {
	return File{Name: name, Data: sampleCSV}
}

func TestSelect_KeepsOnlyFirstFile(t *testing.T) {
	f := New(&fakeUploader{})

	require.NoError(t, f.Select(csvFile("a.csv"), csvFile("b.csv"), csvFile("c.csv")))

	snap := f.Snapshot()
	assert.Equal(t, FileSelected, snap.State)
	assert.Equal(t, "a.csv", snap.FileName)
	assert.Equal(t, []string{"b.csv", "c.csv"}, snap.Discarded)
}

func TestSelect_Empty(t *testing.T) {
	f := New(&fakeUploader{})
	require.NoError(t, f.Select())
	assert.Equal(t, Idle, f.State())
}

func TestSelect_ReplacesStagedFile(t *testing.T) {
	f := New(&fakeUploader{})
	require.NoError(t, f.Select(csvFile("a.csv")))
	require.NoError(t, f.Select(csvFile("b.csv")))

	staged, ok := f.Staged()
	require.True(t, ok)
	assert.Equal(t, "b.csv", staged.Name)
}

func TestCheckCSV(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	tests := []struct {
		name    string
		file    File
		wantErr bool
	}{
		{"csv", csvFile("leads.csv"), false},
		{"upper case extension", csvFile("LEADS.CSV"), false},
		{"empty csv", File{Name: "empty.csv"}, false},
		{"wrong extension", csvFile("leads.txt"), true},
		{"binary content", File{Name: "image.csv", Data: png}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCSV(tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotCSV)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelect_RejectsNonCSVWithoutStateChange(t *testing.T) {
	f := New(&fakeUploader{})
	require.NoError(t, f.Select(csvFile("a.csv")))

	err := f.Select(csvFile("notes.txt"))
	assert.ErrorIs(t, err, ErrNotCSV)

	staged, _ := f.Staged()
	assert.Equal(t, "a.csv", staged.Name)
}

func TestConfirm_Success(t *testing.T) {
	up := &fakeUploader{}
	var got *lead.UploadResult
	f := New(up, OnSuccess(func(r *lead.UploadResult) { got = r }))

	require.NoError(t, f.Select(csvFile("a.csv")))
	res, err := f.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Same(t, res, got)
	assert.Equal(t, Done, f.State())
	assert.Equal(t, []string{"a.csv"}, up.Calls())
}

func TestConfirm_FailureKeepsFileStaged(t *testing.T) {
	up := &fakeUploader{err: errors.New("boom")}
	var reported error
	f := New(up, OnError(func(err error) { reported = err }))

	require.NoError(t, f.Select(csvFile("a.csv")))
	_, err := f.Confirm(context.Background())
	require.Error(t, err)

	assert.EqualError(t, reported, "boom")
	snap := f.Snapshot()
	assert.Equal(t, FileSelected, snap.State)
	assert.Equal(t, "a.csv", snap.FileName)
	assert.Equal(t, "boom", snap.Err)

	// Retry after the backend recovers
	up.err = nil
	_, err = f.Confirm(context.Background())
	require.NoError(t, err)
	assert.Len(t, up.Calls(), 2)
}

func TestConfirm_WithoutFile(t *testing.T) {
	up := &fakeUploader{}
	f := New(up)

	_, err := f.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Empty(t, up.Calls())
}

func TestConfirm_BusyWhileUploading(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{})}
	f := New(up)
	require.NoError(t, f.Select(csvFile("a.csv")))

	done := make(chan error, 1)
	go func() {
		_, err := f.Confirm(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return f.State() == Uploading }, testutil.WaitTimeout, testutil.WaitTick)

	_, err := f.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.Cancel(), ErrBusy)
	assert.ErrorIs(t, f.Select(csvFile("b.csv")), ErrBusy)

	close(up.block)
	require.NoError(t, <-done)
	assert.Len(t, up.Calls(), 1)
}

func TestCancel_NeverCallsServer(t *testing.T) {
	up := &fakeUploader{}
	cancelled := false
	f := New(up, OnCancel(func() { cancelled = true }))

	require.NoError(t, f.Select(csvFile("a.csv")))
	require.NoError(t, f.Cancel())

	assert.True(t, cancelled)
	assert.Equal(t, Cancelled, f.State())
	_, staged := f.Staged()
	assert.False(t, staged)
	assert.Empty(t, up.Calls())
}

func TestOnChange_SeesTransitions(t *testing.T) {
	var states []State
	f := New(&fakeUploader{}, OnChange(func(s State) { states = append(states, s) }))

	require.NoError(t, f.Select(csvFile("a.csv")))
	_, err := f.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []State{FileSelected, Uploading, Done}, states)
}

func TestFlow_AgainstBackend(t *testing.T) {
	b := testutil.NewBackend(t)
	client := api.New(api.Config{BaseURL: b.URL, Logger: testutil.NewTestLogger(t)})
	f := New(client, WithLogger(testutil.NewTestLogger(t)))

	require.NoError(t, f.Select(csvFile("leads.csv")))
	res, err := f.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, b.Calls(testutil.RouteUpload))
	assert.Len(t, b.Leads(), 2)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, sampleCSV, 0o600))

	file, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "leads.csv", file.Name)
	assert.Equal(t, len(sampleCSV), file.Size())

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
