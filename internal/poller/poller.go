// Package poller drives execution-log synchronization: it fetches the log
// on an interval, works out which entries are new and hands rendered rows
// to a Sink.
package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/logging"
)

// Poll intervals of the two views.
const (
	HistoryInterval = 2 * time.Second
	EditorInterval  = 5 * time.Second
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxBackoff     = time.Minute
)

// Policy decides what Run does when the server cannot be reached.
type Policy int

const (
	// RetryWithBackoff keeps polling, backing off exponentially until a
	// fetch succeeds again.
	RetryWithBackoff Policy = iota
	// StopOnFailure makes Run return the first transport error.
	StopOnFailure
)

// ParsePolicy maps a settings value to a Policy. Unknown values retry.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "stop") {
		return StopOnFailure
	}
	return RetryWithBackoff
}

func (p Policy) String() string {
	if p == StopOnFailure {
		return "stop"
	}
	return "retry"
}

// BatchKind says why a batch of rows was produced.
type BatchKind int

const (
	BatchInitial BatchKind = iota
	BatchIncremental
	BatchLoadMore
)

func (k BatchKind) String() string {
	switch k {
	case BatchInitial:
		return "initial"
	case BatchIncremental:
		return "incremental"
	case BatchLoadMore:
		return "load-more"
	}
	return "unknown"
}

// Batch is a set of newly rendered rows, newest first. The receiver
// appends them to its table and re-sorts with execlog.SortRows.
type Batch struct {
	Kind BatchKind
	Rows []execlog.Row
	// HasMore reports whether a load-more affordance should be shown
	// after this batch.
	HasMore bool
}

// Sink receives everything the poller produces. Calls come from the
// poller goroutine, one at a time.
type Sink interface {
	Rows(Batch)
	Status(msg string, running bool)
	Notify(err error)
}

// Fetcher fetches the execution log. *client.Client implements it.
type Fetcher interface {
	FetchExecutionLog(ctx context.Context) (*client.LogResponse, error)
}

// Options configures a Poller. Zero values pick defaults.
type Options struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	Policy         Policy
	MaxBackoff     time.Duration
	// PageSize caps the first load. Zero means execlog.DefaultPageSize;
	// a negative value disables the cap.
	PageSize int
	Renderer execlog.Renderer
	Logger   *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = HistoryInterval
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	if o.PageSize == 0 {
		o.PageSize = execlog.DefaultPageSize
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Poller owns one viewing session's log state. Only the goroutine running
// Run (or calling Poll) touches that state; LoadMore may be called from
// anywhere.
type Poller struct {
	fetch  Fetcher
	sink   Sink
	opts   Options
	logger *logging.Logger

	store   *execlog.Store
	gate    *execlog.Gate
	status  execlog.StatusTracker
	badLast string

	loadMore chan struct{}
}

// New creates a Poller.
func New(f Fetcher, sink Sink, opts Options) *Poller {
	opts = opts.withDefaults()
	return &Poller{
		fetch:    f,
		sink:     sink,
		opts:     opts,
		logger:   opts.Logger.WithComponent("poller"),
		store:    execlog.NewStore(),
		gate:     execlog.NewGate(opts.PageSize),
		loadMore: make(chan struct{}, 1),
	}
}

// Interval returns the effective poll interval.
func (p *Poller) Interval() time.Duration {
	return p.opts.Interval
}

// LoadMore asks the poller to show the entries held back at first load.
// It never blocks; the request is served between ticks.
func (p *Poller) LoadMore() {
	select {
	case p.loadMore <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled, which returns nil. With StopOnFailure
// it returns the first transport error instead.
func (p *Poller) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.opts.Interval
	bo.MaxInterval = p.opts.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	p.logger.Info("polling started", "interval", p.opts.Interval, "policy", p.opts.Policy)
	defer p.logger.Info("polling stopped")

	for {
		delay := p.opts.Interval
		if err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if p.opts.Policy == StopOnFailure {
				return err
			}
			delay = bo.NextBackOff()
			p.logger.Warn("fetch failed, backing off", "error", err, "delay", delay)
		} else {
			bo.Reset()
		}

		if err := p.wait(ctx, delay); err != nil {
			return nil
		}
	}
}

// wait sleeps for d, serving load-more requests meanwhile.
func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-p.loadMore:
			p.serveLoadMore()
		}
	}
}

// Poll runs a single tick: fetch, diff, render. It returns an error only
// for transport failures; everything else is reported to the Sink and the
// next tick goes ahead as normal.
func (p *Poller) Poll(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()

	resp, err := p.fetch.FetchExecutionLog(reqCtx)
	if err != nil {
		if errors.Is(err, client.ErrApplication) {
			p.logger.Warn("server reported failure", "error", err)
			p.sink.Notify(err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.sink.Notify(err)
		return fmt.Errorf("fetch execution log: %w", err)
	}

	if p.status.Observe(resp.UserStatusMsg) {
		p.sink.Status(p.status.Message(), p.status.Running())
	}

	p.process(string(resp.IMAPLog))
	return nil
}

func (p *Poller) process(raw string) {
	if execlog.IsEmptyPayload(raw) || !p.store.HasChanged(raw) {
		return
	}

	snap, err := execlog.DecodeSnapshot(raw)
	if err != nil {
		// The baseline stays put so a corrected payload is still seen as
		// a change. Only a new bad payload is reported.
		if raw != p.badLast {
			p.badLast = raw
			p.logger.Warn("malformed execution log", "error", err, "bytes", len(raw))
			p.sink.Notify(err)
		}
		return
	}
	p.badLast = ""

	if !p.gate.Loaded() {
		entries := p.gate.FirstLoad(snap)
		p.emit(BatchInitial, entries)
	} else {
		delta := execlog.Delta(snap, p.store.Rendered(), p.gate.Pending())
		if delta.Len() > 0 {
			p.emit(BatchIncremental, snap.Entries(delta))
		}
	}
	p.store.Accept(raw)
}

func (p *Poller) serveLoadMore() {
	entries := p.gate.LoadMore()
	if entries == nil {
		return
	}
	p.emit(BatchLoadMore, entries)
}

func (p *Poller) emit(kind BatchKind, entries []execlog.LogEntry) {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key.Raw
	}
	p.store.MarkRendered(keys...)

	p.logger.Debug("rendering entries", "kind", kind, "count", len(entries))
	p.sink.Rows(Batch{
		Kind:    kind,
		Rows:    p.opts.Renderer.Render(entries),
		HasMore: p.gate.HasMore(),
	})
}
