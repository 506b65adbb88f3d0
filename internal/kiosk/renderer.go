package kiosk

import (
	"github.com/NorthPierLabs/weathernow/internal/announce"
	"go.uber.org/zap"
)

// LogRenderer presents announcements in the log stream. It backs the
// headless signage agent, which has no display surface of its own.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer constructs a LogRenderer.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRenderer{logger: logger}
}

// ShowBanner implements Renderer.
func (r *LogRenderer) ShowBanner(msg announce.Announcement, dismiss func()) {
	r.logger.Info("banner",
		zap.Int64("id", msg.ID),
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("text", msg.Text),
		zap.Int("duration", msg.Duration))
}

// ShowPopup implements Renderer.
func (r *LogRenderer) ShowPopup(msg announce.Announcement, dismiss func()) {
	r.logger.Info("popup",
		zap.Int64("id", msg.ID),
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("text", msg.Text),
		zap.Int("duration", msg.Duration),
		zap.Bool("backdrop_dismiss", msg.AllowsBackdropDismiss()))
}
