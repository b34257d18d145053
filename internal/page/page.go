// Package page composes the leads table, the upload modal and the status
// poller into one page, and owns the refresh counter that links them.
package page

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/internal/poller"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// MsgUploadFailed is the alert shown when the backend rejects an upload.
const MsgUploadFailed = "Failed to upload CSV"

// Client is everything the page needs from the API client.
type Client interface {
	table.Service
	upload.Uploader
	poller.StatusSource
}

// Options configures a Page.
type Options struct {
	Logger *slog.Logger
	// Notifier receives every event of the page. A new one is created when nil.
	Notifier *notifier.Notifier
	// Table holds extra options for the table store.
	Table []table.Option
	// Poll enables background status polling after an enrichment trigger.
	Poll        bool
	PollOptions poller.Options
}

// Page is one screen's worth of state.
type Page struct {
	client Client
	table  *table.Store
	notify *notifier.Notifier
	logger *slog.Logger
	poller *poller.Poller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	counter uint64
	flow    *upload.Flow
	closed  bool
}

// New creates a page. Close must be called to stop background polling.
func New(client Client, opts Options) *Page {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := opts.Notifier
	if n == nil {
		n = notifier.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		client: client,
		notify: n,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if opts.Poll {
		po := opts.PollOptions
		if po.Logger == nil {
			po.Logger = logger.With("component", "poller")
		}
		p.poller = poller.New(client, po)
	}

	tableOpts := []table.Option{
		table.WithNotifier(n),
		table.WithLogger(logger.With("component", "table")),
		table.WithEnrichHook(p.enriched),
	}
	p.table = table.New(client, append(tableOpts, opts.Table...)...)
	return p
}

// Table returns the page's table store.
func (p *Page) Table() *table.Store {
	return p.table
}

// Notifier returns the page's event fan-out.
func (p *Page) Notifier() *notifier.Notifier {
	return p.notify
}

// Mount runs the table's first load with the current counter.
func (p *Page) Mount(ctx context.Context) error {
	return p.table.Mount(ctx, p.RefreshCounter())
}

// RefreshCounter returns the value handed to the table as refresh token.
func (p *Page) RefreshCounter() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counter
}

// OpenUpload shows the upload modal with a fresh flow. An upload that is
// already running is kept and returned instead.
func (p *Page) OpenUpload() *upload.Flow {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.flow != nil && p.flow.State() == upload.Uploading {
		return p.flow
	}

	var f *upload.Flow
	f = upload.New(p.client,
		upload.WithLogger(p.logger.With("component", "upload")),
		upload.OnSuccess(func(res *lead.UploadResult) { p.uploaded(f, res) }),
		upload.OnError(func(error) { p.notify.Error(MsgUploadFailed) }),
		upload.OnCancel(func() { p.closeFlow(f) }),
		upload.OnChange(func(upload.State) { p.notify.Changed() }),
	)
	p.flow = f
	p.notify.Changed()
	return f
}

// Upload returns the open modal's flow, or nil when the modal is closed.
func (p *Page) Upload() *upload.Flow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flow
}

// UploadOpen reports whether the upload modal is visible.
func (p *Page) UploadOpen() bool {
	return p.Upload() != nil
}

// uploaded closes the modal and bumps the counter, which reloads the table once.
func (p *Page) uploaded(f *upload.Flow, res *lead.UploadResult) {
	p.mu.Lock()
	if p.flow == f {
		p.flow = nil
	}
	p.counter++
	token := p.counter
	p.mu.Unlock()

	p.logger.Info("csv uploaded", "count", res.Count, "refresh", token)
	p.table.SetRefreshTrigger(p.ctx, token)
}

func (p *Page) closeFlow(f *upload.Flow) {
	p.mu.Lock()
	closed := p.flow == f
	if closed {
		p.flow = nil
	}
	p.mu.Unlock()
	if closed {
		p.notify.Changed()
	}
}

// enriched starts background polling for the enriched leads.
func (p *Page) enriched(ids []int, _ *lead.EnrichResult) {
	if p.poller == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		final, err := p.poller.Watch(p.ctx, ids, func() {
			_ = p.table.Refresh(p.ctx)
		})
		if err != nil {
			p.logger.Debug("status polling ended early", "leads", len(ids), "error", err)
			return
		}
		p.logger.Info("enrichment finished", "leads", len(final))
	}()
}

// Close stops background work and waits for it to finish.
// No poller starts once Close has begun.
func (p *Page) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}
