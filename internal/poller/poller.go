// Package poller follows enrichment progress of a set of leads until every
// one of them reaches a terminal status.
package poller

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Defaults applied to zero Options fields.
const (
	DefaultInterval    = 5 * time.Second
	DefaultConcurrency = 4
)

// StatusSource reports the enrichment status of one lead.
type StatusSource interface {
	EnrichmentStatus(ctx context.Context, id int) (*lead.StatusReport, error)
}

// Options tunes a Poller.
type Options struct {
	// Interval is the minimum time between polling rounds.
	Interval time.Duration
	// Timeout bounds a whole Watch call. Zero means no bound.
	Timeout time.Duration
	// Concurrency caps in-flight status requests per round.
	Concurrency int
	Logger      *slog.Logger
}

// Poller polls enrichment status.
type Poller struct {
	src  StatusSource
	opts Options
}

// New creates a poller, filling unset options with defaults.
func New(src StatusSource, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{src: src, opts: opts}
}

// Watch polls every id once per round until all are completed or failed,
// the timeout expires or ctx is done. onChange (may be nil) runs after a
// round in which any status moved. Leads that disappear (404) are dropped.
// The last observed status per id is returned along with ctx's error when
// polling was cut short.
func (p *Poller) Watch(ctx context.Context, ids []int, onChange func()) (map[int]lead.Status, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	pending := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}
	seen := make(map[int]lead.Status, len(ids))
	limiter := rate.NewLimiter(rate.Every(p.opts.Interval), 1)
	logger := p.opts.Logger

	for round := 1; len(pending) > 0; round++ {
		if err := limiter.Wait(ctx); err != nil {
			// Wait also fails early when the deadline falls before the next slot.
			<-ctx.Done()
			logger.Debug("polling stopped", "round", round, "pending", len(pending), "error", err)
			return seen, ctx.Err()
		}

		observed, gone := p.round(ctx, sortedIDs(pending))
		if err := ctx.Err(); err != nil {
			return seen, err
		}

		changed := false
		for id, st := range observed {
			prev, known := seen[id]
			switch {
			case !known && st.Terminal():
				changed = true
			case known && prev != st:
				changed = true
			}
			seen[id] = st
			if st.Terminal() {
				delete(pending, id)
			}
		}
		for _, id := range gone {
			delete(pending, id)
			delete(seen, id)
		}

		logger.Debug("poll round done", "round", round, "pending", len(pending), "changed", changed)
		if changed && onChange != nil {
			onChange()
		}
	}
	return seen, nil
}

// round queries every id once, bounded by Concurrency.
func (p *Poller) round(ctx context.Context, ids []int) (map[int]lead.Status, []int) {
	var (
		mu       sync.Mutex
		observed = make(map[int]lead.Status, len(ids))
		gone     []int
		g        errgroup.Group
	)
	g.SetLimit(p.opts.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			rep, err := p.src.EnrichmentStatus(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case api.IsNotFound(err):
				p.opts.Logger.Info("lead gone, no longer polling", "id", id)
				gone = append(gone, id)
			case err != nil:
				p.opts.Logger.Warn("status poll failed", "id", id, "error", err)
			default:
				observed[id] = rep.OverallStatus
			}
			return nil
		})
	}
	_ = g.Wait()
	return observed, gone
}

func sortedIDs(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
