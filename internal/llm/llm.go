package llm

import "context"

// Generator produces a free-text completion for a prompt. Implementations
// must be safe for concurrent use; the evaluator fans prompts out across a
// worker pool.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
