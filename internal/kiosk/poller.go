package kiosk

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"go.uber.org/zap"
)

const (
	defaultPollInterval    = 5 * time.Second
	defaultPollMaxInterval = 60 * time.Second
)

var (
	errMissingSource = errors.New("kiosk: message source required")
	errMissingSink   = errors.New("kiosk: delivery sink required")
)

// MessageSource fetches records newer than a cursor.
type MessageSource interface {
	MessagesSince(ctx context.Context, since int64) ([]announce.Announcement, error)
}

// Sink receives newly seen records, in ascending id order.
type Sink interface {
	Deliver(msg announce.Announcement)
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Source MessageSource
	Sink   Sink
	Logger *zap.Logger
	// Interval between successful polls. Defaults to 5s.
	Interval time.Duration
	// MaxInterval caps the backoff after consecutive failures. Defaults to 60s.
	MaxInterval time.Duration
	// StopAfterFirstFailure ends the loop on the first failed poll instead of
	// backing off. Meant for deployments with no backend at all.
	StopAfterFirstFailure bool
	// Wait pauses between polls; injected by tests. Defaults to a
	// context-aware sleep.
	Wait func(ctx context.Context, d time.Duration) error
}

// Poller drives periodic cursor-based synchronization with the announcement
// server. Failed polls keep the cursor where it was and retry with doubling
// backoff; delivery order to the sink is strictly ascending by id, within a
// poll and across polls.
type Poller struct {
	source      MessageSource
	sink        Sink
	logger      *zap.Logger
	interval    time.Duration
	maxInterval time.Duration
	stopOnFail  bool
	wait        func(ctx context.Context, d time.Duration) error

	lastSeen atomic.Int64
}

// NewPoller constructs a poller starting from cursor zero.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Source == nil {
		return nil, errMissingSource
	}
	if cfg.Sink == nil {
		return nil, errMissingSink
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxInterval := cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = defaultPollMaxInterval
	}
	if maxInterval < interval {
		maxInterval = interval
	}
	wait := cfg.Wait
	if wait == nil {
		wait = sleepContext
	}

	return &Poller{
		source:      cfg.Source,
		sink:        cfg.Sink,
		logger:      logger,
		interval:    interval,
		maxInterval: maxInterval,
		stopOnFail:  cfg.StopAfterFirstFailure,
		wait:        wait,
	}, nil
}

// Run polls until ctx is cancelled. The result of a poll in flight during
// cancellation is discarded.
func (p *Poller) Run(ctx context.Context) {
	delay := p.interval
	for {
		records, err := p.source.MessagesSince(ctx, p.lastSeen.Load())
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if p.stopOnFail {
				p.logger.Warn("poll failed, suspending polling", zap.Error(err))
				return
			}
			p.logger.Debug("poll failed", zap.Error(err), zap.Duration("retry_in", delay))
			delay = minDuration(delay*2, p.maxInterval)
		} else {
			delay = p.interval
			p.dispatch(records)
		}

		if err := p.wait(ctx, delay); err != nil {
			return
		}
	}
}

// LastSeen reports the current cursor. Safe to call while Run is polling.
func (p *Poller) LastSeen() int64 {
	return p.lastSeen.Load()
}

func (p *Poller) dispatch(records []announce.Announcement) {
	// The server answers in ascending order already; sorting defends
	// against a misbehaving source.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	for _, record := range records {
		if record.ID <= p.lastSeen.Load() {
			continue
		}
		p.lastSeen.Store(record.ID)
		p.sink.Deliver(record)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
