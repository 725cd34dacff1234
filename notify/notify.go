// Package notify carries user-facing outcome notifications out of the
// services without binding them to a presentation mechanism.
package notify

import (
	"context"
	"log/slog"
)

type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

type logNotifier struct{}

// NewLogNotifier returns a Notifier that records outcomes in the
// structured log. The HTTP layer additionally reflects outcomes in its
// responses; this sink is the durable trail.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) Success(_ context.Context, message string) {
	slog.Info(message)
}

func (logNotifier) Failure(_ context.Context, message string, err error) {
	if err != nil {
		slog.With("error", err.Error()).Error(message)
		return
	}
	slog.Error(message)
}
