package kiosk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"github.com/NorthPierLabs/weathernow/internal/audio"
	"go.uber.org/zap"
)

var errMissingRenderer = errors.New("kiosk: renderer required")

// Renderer presents an announcement. The dismiss callback may be invoked at
// most once per announcement from any dismissal path (close button, backdrop
// click where permitted, or an operator action); extra calls are ignored.
type Renderer interface {
	ShowBanner(msg announce.Announcement, dismiss func())
	ShowPopup(msg announce.Announcement, dismiss func())
}

// Narrator speaks announcements. Implemented by narrate.Narrator.
type Narrator interface {
	Narrate(msg announce.Announcement)
	Stop()
}

// Dismisser reconciles a local dismissal with the server.
type Dismisser interface {
	Dismiss(ctx context.Context, id int64) error
}

const defaultDismissTimeout = 5 * time.Second

// PipelineConfig configures a delivery pipeline.
type PipelineConfig struct {
	Renderer Renderer
	// Chimer plays the per-type alert chime. Nil skips chimes.
	Chimer audio.Chimer
	// Narrator speaks tts records. Nil skips narration.
	Narrator Narrator
	// Dismisser is told about dismissals, best-effort. Nil skips the call.
	Dismisser Dismisser
	Logger    *zap.Logger
	// Schedule arms the auto-dismiss timer and returns its cancel function.
	// Defaults to time.AfterFunc; injected by tests.
	Schedule func(d time.Duration, fn func()) (cancel func())
	// DismissTimeout bounds the server dismissal call. Defaults to 5s.
	DismissTimeout time.Duration
}

// Pipeline turns a received record into its observable effects exactly once:
// chime, banner or popup, optional narration, and on dismissal a best-effort
// server delete. Its own seen-set makes redelivery of an id a no-op even if
// the poller hands it over twice.
type Pipeline struct {
	renderer       Renderer
	chimer         audio.Chimer
	narrator       Narrator
	dismisser      Dismisser
	logger         *zap.Logger
	schedule       func(d time.Duration, fn func()) func()
	dismissTimeout time.Duration

	mu        sync.Mutex
	delivered map[int64]struct{}
	timers    map[int64]func()
	stopped   bool
}

// NewPipeline constructs a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Renderer == nil {
		return nil, errMissingRenderer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule := cfg.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, fn func()) func() {
			timer := time.AfterFunc(d, fn)
			return func() { timer.Stop() }
		}
	}
	dismissTimeout := cfg.DismissTimeout
	if dismissTimeout <= 0 {
		dismissTimeout = defaultDismissTimeout
	}

	return &Pipeline{
		renderer:       cfg.Renderer,
		chimer:         cfg.Chimer,
		narrator:       cfg.Narrator,
		dismisser:      cfg.Dismisser,
		logger:         logger,
		schedule:       schedule,
		dismissTimeout: dismissTimeout,
		delivered:      make(map[int64]struct{}),
		timers:         make(map[int64]func()),
	}, nil
}

// Deliver renders, chimes and narrates a record. A record id already
// delivered, by any earlier poll, is ignored.
func (p *Pipeline) Deliver(msg announce.Announcement) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	if _, seen := p.delivered[msg.ID]; seen {
		p.mu.Unlock()
		return
	}
	p.delivered[msg.ID] = struct{}{}
	p.mu.Unlock()

	if p.chimer != nil {
		p.chimer.Chime(msg.Type)
	}

	dismiss := p.dismissFunc(msg.ID)
	if msg.Duration > 0 {
		cancel := p.schedule(time.Duration(msg.Duration)*time.Second, dismiss)
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			cancel()
			return
		}
		p.timers[msg.ID] = cancel
		p.mu.Unlock()
	}

	if msg.Display == announce.DisplayPopup {
		p.renderer.ShowPopup(msg, dismiss)
	} else {
		p.renderer.ShowBanner(msg, dismiss)
	}

	if msg.TTS && p.narrator != nil {
		p.narrator.Narrate(msg)
	}
}

// Stop cancels pending auto-dismiss timers and any narration. Records
// delivered afterwards are dropped.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancels := make([]func(), 0, len(p.timers))
	for _, cancel := range p.timers {
		cancels = append(cancels, cancel)
	}
	p.timers = make(map[int64]func())
	p.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if p.narrator != nil {
		p.narrator.Stop()
	}
}

// dismissFunc builds the single-shot dismissal for a record. The first call
// wins regardless of path; the server delete is best-effort and a failure
// never resurfaces the record locally, since redelivery is blocked by the
// seen-set rather than by server state.
func (p *Pipeline) dismissFunc(id int64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			cancel := p.timers[id]
			delete(p.timers, id)
			p.mu.Unlock()
			if cancel != nil {
				cancel()
			}

			if p.dismisser == nil {
				return
			}
			ctx, cancelCtx := context.WithTimeout(context.Background(), p.dismissTimeout)
			defer cancelCtx()
			if err := p.dismisser.Dismiss(ctx, id); err != nil {
				p.logger.Debug("server dismissal failed", zap.Int64("id", id), zap.Error(err))
			}
		})
	}
}
