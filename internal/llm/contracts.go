package llm

import "context"

// TextGenerator is the one capability the analysis pipeline needs from a
// language model provider. Implementations return the raw completion text;
// JSON repair and validation happen in the phase runner, not the provider.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
