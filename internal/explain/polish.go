package explain

import (
	"context"
	"log"

	"clarabill/internal/domain"
	"clarabill/internal/port"
)

// Polish rewrites each explanation's sentence through the rewriter. The
// deterministic sentence always survives: on success it moves to Fallback, on
// failure it stays in place and a single warning is emitted for the run.
func Polish(ctx context.Context, rw port.SentenceRewriter, explanations []domain.Explanation) ([]domain.Explanation, []string) {
	if rw == nil {
		return explanations, nil
	}

	failed := false
	for i := range explanations {
		exp := &explanations[i]
		rewritten, err := rw.Rewrite(ctx, exp.Sentence)
		if err != nil {
			log.Printf("explain.Polish: line %d rewrite failed: %v", exp.LineNo, err)
			failed = true
			continue
		}
		exp.Fallback = exp.Sentence
		exp.Sentence = rewritten
		exp.LLMPolished = true
	}

	if failed {
		return explanations, []string{domain.WarnLLMPolishFailed}
	}
	return explanations, nil
}
