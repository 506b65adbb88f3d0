package narrate

import (
	"context"

	"go.uber.org/zap"
)

// LogEngine is an Engine for headless deployments without a speech backend.
// It logs the utterance and completes immediately.
type LogEngine struct {
	Logger *zap.Logger
}

// Speak implements Engine.
func (e LogEngine) Speak(ctx context.Context, utterance Utterance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("narration",
		zap.String("text", utterance.Text),
		zap.Float64("rate", utterance.Rate),
		zap.Float64("pitch", utterance.Pitch))
	return nil
}
