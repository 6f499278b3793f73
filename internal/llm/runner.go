package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// PhaseRunner turns one prompt into one validated phase payload. Each attempt
// is a full completion, repair, sanitize, validate cycle; failures back off
// exponentially up to the attempt ceiling.
type PhaseRunner struct {
	gen         TextGenerator
	maxAttempts uint64
	logger      *slog.Logger
}

func NewPhaseRunner(gen TextGenerator, maxAttempts int, logger *slog.Logger) *PhaseRunner {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PhaseRunner{gen: gen, maxAttempts: uint64(maxAttempts), logger: logger}
}

// Run executes the prompt for one phase. The returned PhaseResult always
// carries the phase and attempt count; on failure Success is false and Err
// holds the last attempt's error.
func (r *PhaseRunner) Run(ctx context.Context, phase constants.AnalysisPhase, prompt string) entity.PhaseResult {
	start := time.Now()
	res := entity.PhaseResult{Phase: phase}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	op := func() error {
		res.Attempts++
		payload, raw, err := r.attempt(ctx, phase, prompt)
		if err != nil {
			r.logger.Warn("llm.phase.attempt_failed",
				"phase", phase, "attempt", res.Attempts,
				"prompt_len", len(prompt), "response_len", len(raw),
				"error", err)
			return err
		}
		res.Payload = payload
		res.Raw = raw
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, r.maxAttempts-1), ctx))
	if err != nil {
		res.Err = err.Error()
		r.logger.Error("llm.phase.failed",
			"phase", phase, "attempts", res.Attempts, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return res
	}

	res.Success = true
	r.logger.Info("llm.phase.ok",
		"phase", phase, "attempts", res.Attempts,
		"prompt_len", len(prompt), "response_len", len(res.Raw),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res
}

func (r *PhaseRunner) attempt(ctx context.Context, phase constants.AnalysisPhase, prompt string) (map[string]any, string, error) {
	completion, err := r.gen.Complete(ctx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("complete: %w", err)
	}

	candidate, err := ExtractJSONObject(completion)
	if err != nil {
		return nil, completion, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, candidate, fmt.Errorf("decode payload: %w", err)
	}

	if touched := SanitizePhasePayload(payload); len(touched) > 0 {
		r.logger.Debug("llm.phase.sanitized", "phase", phase, "touched", touched)
	}

	if err := ValidatePhasePayload(phase, payload); err != nil {
		return nil, candidate, err
	}
	return payload, candidate, nil
}
