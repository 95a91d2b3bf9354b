// Package syncer drives the incremental catch-up of the local store against
// the remote SORA source: probe the newest date on both sides, fetch the
// gap page by page, validate, then append once.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/sora/mas"
	"github.com/rustyeddy/sora/pkg/id"
	"github.com/rustyeddy/sora/rates"
	"github.com/rustyeddy/sora/store"
)

// Source is the remote side of a sync. *mas.Client satisfies it.
type Source interface {
	FetchPage(ctx context.Context, req mas.PageRequest) (mas.Page, error)
	LatestDate(ctx context.Context) (time.Time, error)
}

// State names one step of a sync attempt.
type State string

const (
	StateIdle        State = "idle"
	StateProbeLatest State = "probe_latest"
	StateUpToDate    State = "up_to_date"
	StateCatchup     State = "catchup"
	StateFetching    State = "fetching"
	StateValidating  State = "validating"
	StateAppending   State = "appending"
)

// Options tune one orchestrator. Zero values get defaults.
type Options struct {
	PageSize    int           // records per fetch, default 100
	MaxAttempts int           // attempts per retryable step, default 3
	Backoff     time.Duration // initial backoff, doubled per retry, default 500ms
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = mas.DefaultPageSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	return o
}

// Report summarizes one sync attempt.
type Report struct {
	RunID    string
	Fetched  int // raw records retrieved across all pages
	Dropped  int // records rejected by validation/dedup
	Appended int // records persisted
	UpToDate bool
}

// Orchestrator runs sync attempts. Attempts are serialized; queries may run
// concurrently with a sync, but two syncs never race each other.
type Orchestrator struct {
	source Source
	store  *store.Store
	opts   Options
	log    *slog.Logger

	mu sync.Mutex // one attempt at a time
}

// New wires an orchestrator. A nil logger discards all output.
func New(source Source, st *store.Store, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		source: source,
		store:  st,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// Run performs one sync attempt. Any failure aborts the attempt before the
// single append, so the store is never left mid-page. The outcome, success
// or not, lands in the sync_runs audit table.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	started := time.Now().UTC()
	rep := Report{RunID: id.New()}
	log := o.log.With("run_id", rep.RunID)

	err := o.attempt(ctx, log, &rep)

	run := store.Run{
		ID:         rep.RunID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Fetched:    rep.Fetched,
		Dropped:    rep.Dropped,
		Appended:   rep.Appended,
	}
	switch {
	case err != nil:
		run.Status = "failed"
		run.Error = err.Error()
	case rep.UpToDate:
		run.Status = "noop"
	default:
		run.Status = "ok"
	}
	if rerr := o.store.RecordRun(run); rerr != nil {
		log.Warn("record sync run", "err", rerr)
	}

	return rep, err
}

func (o *Orchestrator) attempt(ctx context.Context, log *slog.Logger, rep *Report) error {
	log.Debug("state", "state", StateProbeLatest)

	var apiLatest time.Time
	err := o.withRetry(ctx, log, "probe latest", func() error {
		var err error
		apiLatest, err = o.source.LatestDate(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("probe latest: %w", err)
	}

	storeLatest, haveLocal, err := o.store.LatestDate()
	if err != nil {
		return fmt.Errorf("store latest: %w", err)
	}

	var between *mas.DateRange
	switch {
	case !haveLocal:
		// Empty store: full catch-up, unrestricted range.
		log.Info("state", "state", StateCatchup, "mode", "full", "api_latest", rates.FormatDate(apiLatest))
	case storeLatest.Before(apiLatest):
		// Inclusive on both ends; the overlap day is re-fetched but dedup
		// guarantees it is never re-appended.
		between = &mas.DateRange{Start: storeLatest, End: apiLatest}
		log.Info("state", "state", StateCatchup, "mode", "bounded",
			"from", rates.FormatDate(storeLatest), "to", rates.FormatDate(apiLatest))
	default:
		log.Info("state", "state", StateUpToDate, "latest", rates.FormatDate(storeLatest))
		rep.UpToDate = true
		return nil
	}

	log.Debug("state", "state", StateFetching)
	raw, err := o.fetchAll(ctx, log, between)
	if err != nil {
		return err
	}
	rep.Fetched = len(raw)

	log.Debug("state", "state", StateValidating)
	existing, err := o.store.Dates()
	if err != nil {
		return fmt.Errorf("store keys: %w", err)
	}
	recs := rates.Clean(raw, existing)
	rep.Dropped = len(raw) - len(recs)

	if len(recs) == 0 {
		log.Info("nothing to append", "fetched", rep.Fetched, "dropped", rep.Dropped)
		return nil
	}

	log.Debug("state", "state", StateAppending, "records", len(recs))
	if err := o.store.Append(recs); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	rep.Appended = len(recs)

	log.Info("sync complete", "fetched", rep.Fetched, "dropped", rep.Dropped, "appended", rep.Appended)
	log.Debug("state", "state", StateIdle)
	return nil
}

// fetchAll pages through the source ascending from offset 0 until the
// accumulated count reaches the total reported by the first page.
func (o *Orchestrator) fetchAll(ctx context.Context, log *slog.Logger, between *mas.DateRange) ([]rates.Raw, error) {
	var (
		all    []rates.Raw
		total  = -1
		offset = 0
	)

	for {
		var page mas.Page
		err := o.withRetry(ctx, log, "fetch page", func() error {
			var err error
			page, err = o.source.FetchPage(ctx, mas.PageRequest{
				Between: between,
				Offset:  offset,
				Limit:   o.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		if total < 0 {
			total = page.Total
		}
		if len(page.Records) == 0 && len(all) < total {
			return nil, fmt.Errorf("%w: empty page at offset %d, expected %d records",
				mas.ErrMalformedResponse, offset, total)
		}

		all = append(all, page.Records...)
		log.Debug("page fetched", "offset", offset, "records", len(page.Records), "total", total)

		if len(all) >= total {
			return all, nil
		}
		offset += o.opts.PageSize
	}
}

// withRetry retries fn on ErrSourceUnavailable with capped exponential
// backoff. Malformed responses and every other error surface immediately.
func (o *Orchestrator) withRetry(ctx context.Context, log *slog.Logger, step string, fn func() error) error {
	backoff := o.opts.Backoff

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, mas.ErrSourceUnavailable) {
			return err
		}
		if attempt >= o.opts.MaxAttempts {
			return fmt.Errorf("%s: %d attempts: %w", step, attempt, err)
		}

		log.Warn("retrying", "step", step, "attempt", attempt, "backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
