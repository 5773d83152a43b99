package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}
	if event.RigAddr != 0 {
		attrs = append(attrs, slog.String("rig_addr", fmt.Sprintf("%02X", event.RigAddr)))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.String("frame", fmt.Sprintf("% X", event.Frame.Data)),
		)
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Command != nil:
		c := event.Command
		attrs = append(attrs,
			slog.String("cmd", c.Command.String()),
			slog.String("route", fmt.Sprintf("%02X->%02X", c.From, c.To)),
		)
		if c.Sub != nil {
			attrs = append(attrs, slog.String("sub", fmt.Sprintf("%02X", *c.Sub)))
		}
		if len(c.Data) > 0 {
			attrs = append(attrs, slog.String("data", fmt.Sprintf("% X", c.Data)))
		}
		if c.Attempt > 0 {
			attrs = append(attrs, slog.Int("attempt", c.Attempt))
		}
		if c.Elapsed != nil {
			attrs = append(attrs, slog.Duration("elapsed", *c.Elapsed))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "civ", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
