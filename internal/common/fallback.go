package common

import (
	"context"
	"log/slog"
)

// Attempt is one candidate way of producing a T.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// FirstSuccess runs attempts in order and returns the first result whose Run
// returns nil error. Exhaustion yields the supplied default. Individual
// failures are logged and swallowed; this is the shared degradation shape used
// across extraction and analysis.
func FirstSuccess[T any](ctx context.Context, logger *slog.Logger, attempts []Attempt[T], def T) T {
	if logger == nil {
		logger = slog.Default()
	}
	for _, a := range attempts {
		if ctx.Err() != nil {
			break
		}
		v, err := a.Run(ctx)
		if err == nil {
			return v
		}
		logger.Warn("fallback.attempt_failed", "attempt", a.Name, "error", err)
	}
	logger.Warn("fallback.exhausted", "attempts", len(attempts))
	return def
}
