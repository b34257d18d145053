package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/internal/page"
)

const (
	sessionName  = "leadsync"
	sessionKeyID = "sid"
)

// entry is the server-side state of one browser session.
type entry struct {
	id      string
	page    *page.Page
	events  chan notifier.Event
	updates *notifier.Notifier
	done    chan struct{}

	mountOnce sync.Once
	streams   atomic.Int32

	mu        sync.Mutex
	seen      time.Time
	alerts    []notifier.Event
	uploadErr string
}

func newEntry(id string, p *page.Page, now time.Time) *entry {
	e := &entry{
		id:      id,
		page:    p,
		events:  p.Notifier().Subscribe(),
		updates: notifier.New(),
		done:    make(chan struct{}),
		seen:    now,
	}
	go e.collect()
	return e
}

// collect queues alerts from the page and pings update streams.
func (e *entry) collect() {
	defer close(e.done)
	for ev := range e.events {
		if ev.Kind == notifier.Alert {
			e.mu.Lock()
			e.alerts = append(e.alerts, ev)
			e.mu.Unlock()
		}
		e.updates.Changed()
	}
}

func (e *entry) mount(ctx context.Context) {
	e.mountOnce.Do(func() {
		_ = e.page.Mount(ctx)
	})
}

func (e *entry) touch(now time.Time) {
	e.mu.Lock()
	e.seen = now
	e.mu.Unlock()
}

func (e *entry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen
}

func (e *entry) Alerts() []notifier.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]notifier.Event(nil), e.alerts...)
}

func (e *entry) dismissAlert() {
	e.mu.Lock()
	if len(e.alerts) > 0 {
		e.alerts = e.alerts[1:]
	}
	e.mu.Unlock()
}

func (e *entry) setUploadErr(msg string) {
	e.mu.Lock()
	e.uploadErr = msg
	e.mu.Unlock()
}

func (e *entry) UploadErr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uploadErr
}

func (e *entry) close() {
	e.page.Close()
	e.page.Notifier().Unsubscribe(e.events)
	<-e.done
}

// registry maps session ids to their page state.
type registry struct {
	store   sessions.Store
	newPage func() *page.Page
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func newRegistry(store sessions.Store, newPage func() *page.Page, ttl time.Duration, logger *slog.Logger) *registry {
	return &registry{
		store:   store,
		newPage: newPage,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// lookup returns the entry for the request's session, creating the session
// cookie and the entry as needed. It must run before anything is written.
func (r *registry) lookup(w http.ResponseWriter, req *http.Request) (*entry, error) {
	// A cookie that no longer decodes yields a fresh session and an error.
	sess, err := r.store.Get(req, sessionName)
	if sess == nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	id, _ := sess.Values[sessionKeyID].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[sessionKeyID] = id
		if err := sess.Save(req, w); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	now := r.now()
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = newEntry(id, r.newPage(), now)
		r.entries[id] = e
		r.logger.Debug("session opened", "session", id)
	}
	r.mu.Unlock()

	e.touch(now)
	return e, nil
}

// Len returns the number of live sessions.
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// reap closes sessions idle for longer than the ttl. Sessions with an
// open update stream are kept.
func (r *registry) reap() int {
	if r.ttl <= 0 {
		return 0
	}
	now := r.now()

	var stale []*entry
	r.mu.Lock()
	for id, e := range r.entries {
		if e.streams.Load() > 0 || now.Sub(e.idleSince()) < r.ttl {
			continue
		}
		delete(r.entries, id)
		stale = append(stale, e)
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.close()
		r.logger.Debug("session expired", "session", e.id)
	}
	return len(stale)
}

// reapLoop runs reap until ctx is done.
func (r *registry) reapLoop(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.reap()
		}
	}
}

// closeAll closes every session.
func (r *registry) closeAll() {
	r.mu.Lock()
	all := make([]*entry, 0, len(r.entries))
	for id, e := range r.entries {
		all = append(all, e)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	for _, e := range all {
		e.close()
	}
}
