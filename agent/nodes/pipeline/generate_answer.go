package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

// GenerateAnswer produces the draft reply from the full conversation. The
// draft lands in RawAnswer only; ReviewAnswer decides whether it may be
// shown or persisted.
func GenerateAnswer(ctx context.Context, in *GraphState, generator contractx.Generator) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Thread == nil {
		return nil, fmt.Errorf("%w: thread state is missing", contractx.ErrValidation)
	}

	if in.Emit != nil {
		in.RawAnswer = generator.GenerateStream(ctx, in.Thread.History, in.Emit)
	} else {
		in.RawAnswer = generator.Generate(ctx, in.Thread.History)
	}
	return in, nil
}
