package port

import "context"

// SentenceRewriter is the optional LLM polish collaborator. On any failure or
// timeout the caller keeps the deterministic sentence unchanged.
type SentenceRewriter interface {
	Rewrite(ctx context.Context, sentence string) (string, error)
}
