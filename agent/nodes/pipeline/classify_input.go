package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	historyx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/history"
)

// ClassifyInput runs the input gate over the latest user message. The digest
// summarizes the turns before the one LoadThread just appended, so short
// follow-ups like "what about there?" are judged with their context.
func ClassifyInput(ctx context.Context, in *GraphState, guard contractx.InputGuard) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Thread == nil {
		return nil, fmt.Errorf("%w: thread state is missing", contractx.ErrValidation)
	}

	decision, err := guard.Classify(ctx, contractx.GuardRequest{
		HistoryDigest: historyx.Digest(in.Thread.History),
		Latest:        in.Text,
	})
	if err != nil {
		return nil, err
	}

	in.Verdict = decision.Verdict
	in.RejectionReason = decision.Reason
	return in, nil
}
