// Package table owns the client-side state of the leads table.
//
// A Store holds the last applied server snapshot of the lead list together
// with purely local UI state: row selection, in-flight flags and the page
// window. Every mutating action is followed by a fresh fetch. Fetches are
// sequence-numbered so a slow, older response never overwrites a newer one.
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// User-facing messages.
const (
	MsgSelectFirst   = "Please select leads to enrich"
	MsgEnrichStarted = "Enrichment started! This may take a few minutes."
	MsgEnrichFailed  = "Failed to start enrichment"
	MsgDeleteFailed  = "Failed to delete lead"
	MsgDeletePrompt  = "Are you sure you want to delete this lead?"
)

// DefaultPageSize is the number of rows per page unless overridden.
const DefaultPageSize = 10

// Sentinel errors.
var (
	ErrNoSelection = errors.New("no leads selected")
	ErrDeclined    = errors.New("deletion declined")
)

// Service is the subset of the API client the table needs.
type Service interface {
	ListLeads(ctx context.Context, opts ...api.ListOption) ([]lead.Lead, error)
	EnrichLeads(ctx context.Context, ids []int, types []string) (*lead.EnrichResult, error)
	DeleteLead(ctx context.Context, id int) error
}

// EnrichHook observes a successful enrichment trigger.
type EnrichHook func(ids []int, res *lead.EnrichResult)

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where change pings and alerts are broadcast.
func WithNotifier(n *notifier.Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPageSize sets the number of rows per page. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPruneSelection controls whether selection entries for ids missing
// from an applied snapshot are dropped.
func WithPruneSelection(on bool) Option {
	return func(s *Store) { s.prune = on }
}

// WithListOptions sets query options sent with every list request.
func WithListOptions(opts ...api.ListOption) Option {
	return func(s *Store) { s.listOpts = opts }
}

// WithEnrichHook registers a callback run after a successful enrichment trigger.
func WithEnrichHook(h EnrichHook) Option {
	return func(s *Store) { s.enrichHook = h }
}

// Store is the leads table state machine. Safe for concurrent use;
// network calls are made without holding the lock.
type Store struct {
	svc        Service
	notify     *notifier.Notifier
	logger     *slog.Logger
	pageSize   int
	prune      bool
	enrichHook EnrichHook
	listOpts   []api.ListOption

	mu         sync.Mutex
	leads      []lead.Lead
	selected   map[int]bool
	inflight   int
	enriching  bool
	pageIndex  int
	loadErr    error
	token      uint64
	mounted    bool
	nextSeq    uint64
	appliedSeq uint64
}

// New creates an empty store.
func New(svc Service, opts ...Option) *Store {
	s := &Store{
		svc:      svc,
		logger:   slog.New(slog.DiscardHandler),
		pageSize: DefaultPageSize,
		prune:    true,
		leads:    []lead.Lead{},
		selected: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notifier returns the notifier the store broadcasts on (may be nil).
func (s *Store) Notifier() *notifier.Notifier {
	return s.notify
}

// Mount records the initial refresh token and runs the first load.
func (s *Store) Mount(ctx context.Context, token uint64) error {
	s.mu.Lock()
	s.token = token
	s.mounted = true
	s.mu.Unlock()

	return s.Load(ctx)
}

// SetRefreshTrigger runs exactly one load when token differs from the
// last seen value. It reports whether a load ran.
func (s *Store) SetRefreshTrigger(ctx context.Context, token uint64) bool {
	s.mu.Lock()
	if s.mounted && token == s.token {
		s.mu.Unlock()
		return false
	}
	s.token = token
	s.mounted = true
	s.mu.Unlock()

	_ = s.Load(ctx)
	return true
}

// Refresh reloads without touching the refresh token.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Load fetches the full lead list and applies it if no newer snapshot
// has been applied meanwhile. On failure the current rows are kept.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.inflight++
	s.mu.Unlock()
	s.notify.Changed()

	leads, err := s.svc.ListLeads(ctx, s.listOpts...)

	s.mu.Lock()
	s.inflight--
	fresh := seq > s.appliedSeq
	switch {
	case err != nil && fresh:
		s.loadErr = err
	case err != nil:
	case fresh:
		s.applyLocked(seq, leads)
	}
	s.mu.Unlock()
	s.notify.Changed()

	if err != nil {
		s.logger.Error("failed to load leads", "seq", seq, "error", err)
		return fmt.Errorf("load leads: %w", err)
	}
	if !fresh {
		s.logger.Debug("discarding stale lead snapshot", "seq", seq, "rows", len(leads))
		return nil
	}
	s.logger.Debug("leads loaded", "seq", seq, "rows", len(leads))
	return nil
}

func (s *Store) applyLocked(seq uint64, leads []lead.Lead) {
	s.appliedSeq = seq
	s.leads = append(make([]lead.Lead, 0, len(leads)), leads...)
	s.loadErr = nil

	if s.prune {
		present := make(map[int]struct{}, len(leads))
		for _, l := range leads {
			present[l.ID] = struct{}{}
		}
		for id := range s.selected {
			if _, ok := present[id]; !ok {
				delete(s.selected, id)
			}
		}
	}

	if last := s.pageCountLocked() - 1; s.pageIndex > last {
		s.pageIndex = last
	}
}

// ToggleRow flips the selection of one row.
func (s *Store) ToggleRow(id int) {
	s.mu.Lock()
	s.selected[id] = !s.selected[id]
	s.mu.Unlock()
	s.notify.Changed()
}

// SetSelected sets the selection of one row.
func (s *Store) SetSelected(id int, on bool) {
	s.mu.Lock()
	s.selected[id] = on
	s.mu.Unlock()
	s.notify.Changed()
}

// ToggleAll deselects every loaded row when all are selected and
// selects every loaded row otherwise.
func (s *Store) ToggleAll() {
	s.mu.Lock()
	target := !s.allSelectedLocked()
	for _, l := range s.leads {
		s.selected[l.ID] = target
	}
	s.mu.Unlock()
	s.notify.Changed()
}

// AllSelected reports whether there is at least one loaded row and
// every loaded row is selected.
func (s *Store) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allSelectedLocked()
}

func (s *Store) allSelectedLocked() bool {
	if len(s.leads) == 0 {
		return false
	}
	for _, l := range s.leads {
		if !s.selected[l.ID] {
			return false
		}
	}
	return true
}

// SelectedIDs returns the ids currently marked selected, ascending.
func (s *Store) SelectedIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

func (s *Store) selectedIDsLocked() []int {
	ids := make([]int, 0, len(s.selected))
	for id, on := range s.selected {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// EnrichSelected triggers enrichment of every selected lead.
// On success the selection is cleared and the table reloads once.
func (s *Store) EnrichSelected(ctx context.Context) (*lead.EnrichResult, error) {
	s.mu.Lock()
	ids := s.selectedIDsLocked()
	if len(ids) == 0 {
		s.mu.Unlock()
		s.notify.Info(MsgSelectFirst)
		return nil, ErrNoSelection
	}
	s.enriching = true
	s.mu.Unlock()
	s.notify.Changed()

	s.logger.Info("starting enrichment", "leads", len(ids))
	res, err := s.svc.EnrichLeads(ctx, ids, lead.EnrichmentTypes())

	s.mu.Lock()
	s.enriching = false
	if err == nil {
		s.selected = make(map[int]bool)
	}
	s.mu.Unlock()
	s.notify.Changed()

	if err != nil {
		s.logger.Error("failed to start enrichment", "leads", len(ids), "error", err)
		s.notify.Error(MsgEnrichFailed)
		return nil, fmt.Errorf("enrich leads: %w", err)
	}

	s.notify.Info(MsgEnrichStarted)
	if s.enrichHook != nil {
		s.enrichHook(ids, res)
	}
	_ = s.Load(ctx)
	return res, nil
}

// DeleteRow asks c for confirmation, deletes the lead and reloads once.
func (s *Store) DeleteRow(ctx context.Context, id int, c Confirmer) error {
	ok, err := c.Confirm(ctx, MsgDeletePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrDeclined
	}

	if err := s.svc.DeleteLead(ctx, id); err != nil {
		s.logger.Error("failed to delete lead", "id", id, "error", err)
		s.notify.Error(MsgDeleteFailed)
		return fmt.Errorf("delete lead %d: %w", id, err)
	}

	s.logger.Info("lead deleted", "id", id)
	_ = s.Load(ctx)
	return nil
}

// Leads returns a copy of every loaded lead.
func (s *Store) Leads() []lead.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lead.Lead(nil), s.leads...)
}

// Loading reports whether any fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Enriching reports whether an enrichment trigger is in flight.
func (s *Store) Enriching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enriching
}

// LoadErr returns the error of the most recent failed load, cleared by
// the next successful one.
func (s *Store) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}
