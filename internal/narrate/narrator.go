package narrate

import (
	"context"
	"errors"
	"sync"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"github.com/NorthPierLabs/weathernow/internal/audio"
	"go.uber.org/zap"
)

// Utterance is one request to the speech engine.
type Utterance struct {
	Text  string
	Rate  float64
	Pitch float64
}

// Engine synthesizes speech. Speak blocks until the utterance finishes, the
// engine fails, or ctx is cancelled.
type Engine interface {
	Speak(ctx context.Context, utterance Utterance) error
}

// SpokenText composes the narrated form of an announcement: the title
// followed by the text when a title is present, otherwise just the text.
func SpokenText(msg announce.Announcement) string {
	if msg.Title != "" {
		return msg.Title + ". " + msg.Text
	}
	return msg.Text
}

// UtteranceFor builds the utterance for an announcement. Emergency messages
// are spoken slightly faster and higher-pitched.
func UtteranceFor(msg announce.Announcement) Utterance {
	utterance := Utterance{Text: SpokenText(msg), Rate: 1.0, Pitch: 1.0}
	if msg.Type == announce.TypeEmergency {
		utterance.Rate = 1.1
		utterance.Pitch = 1.1
	}
	return utterance
}

// Config configures a Narrator.
type Config struct {
	Engine Engine
	// Ducker lowers background audio around speech. Nil is tolerated.
	Ducker audio.Ducker
	Logger *zap.Logger
}

// Narrator speaks announcements through an Engine, holding at most one
// utterance at a time. Starting a new narration cancels any one still in
// progress; the single current-narration slot is replaced and cancelled
// atomically. Background audio is ducked before speech starts and restored
// when speech ends or fails, unless a newer narration has taken over the
// slot in the meantime.
type Narrator struct {
	engine Engine
	ducker audio.Ducker
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewNarrator constructs a Narrator.
func NewNarrator(cfg Config) *Narrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{
		engine: cfg.Engine,
		ducker: cfg.Ducker,
		logger: logger,
	}
}

// Narrate speaks the announcement if it requests narration. Any in-progress
// utterance is cancelled first. Narrate returns once speech has started; the
// completion and unduck happen asynchronously.
func (n *Narrator) Narrate(msg announce.Announcement) {
	if n.engine == nil || !msg.TTS {
		return
	}

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.generation++
	generation := n.generation
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.mu.Unlock()

	if n.ducker != nil {
		n.ducker.Duck()
	}

	go func() {
		err := n.engine.Speak(ctx, UtteranceFor(msg))
		if err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Warn("narration failed", zap.Int64("id", msg.ID), zap.Error(err))
		}

		n.mu.Lock()
		current := n.generation == generation
		if current {
			n.cancel = nil
		}
		n.mu.Unlock()

		// Only the narration that still owns the slot may restore the
		// background volume; a superseded one would unduck mid-speech.
		if current && n.ducker != nil {
			n.ducker.Unduck()
		}
	}()
}

// Stop cancels any in-progress narration and restores background audio.
func (n *Narrator) Stop() {
	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.generation++
	n.mu.Unlock()

	if n.ducker != nil {
		n.ducker.Unduck()
	}
}
