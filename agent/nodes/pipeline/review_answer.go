package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

// ReviewAnswer runs the output gate over the draft. A safe draft becomes the
// final response; an unsafe one is replaced with the sanitized response and
// the raw draft is discarded without ever touching the thread record.
func ReviewAnswer(ctx context.Context, in *GraphState, guard contractx.OutputGuard) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Thread == nil {
		return nil, fmt.Errorf("%w: thread state is missing", contractx.ErrValidation)
	}

	decision, err := guard.Review(ctx, contractx.ReviewRequest{
		Question: statex.LastUserText(in.Thread.History),
		Answer:   in.RawAnswer,
	})
	if err != nil {
		return nil, err
	}

	in.OutputSafe = decision.Safe
	in.OutputReason = decision.Reason

	if decision.Safe {
		in.FinalResponse = in.RawAnswer
	} else {
		in.FinalResponse = promptx.SanitizedResponse
	}
	in.Thread.Append(statex.RoleAssistant, in.FinalResponse)
	return in, nil
}
