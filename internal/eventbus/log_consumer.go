package eventbus

import (
	"context"
	"log/slog"
)

// LogConsumer logs every poll event.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer { return &LogConsumer{logger: logger} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt Event) error {
	attrs := []any{"kind", evt.Kind, "poll", evt.Poll.ID, "tally", evt.Poll.Tally}
	if m, ok := evt.Poll.WinningMovie(); ok {
		attrs = append(attrs, "winner", m.ID, "title", m.Title)
	}
	c.logger.Info("poll event", attrs...)
	return nil
}
