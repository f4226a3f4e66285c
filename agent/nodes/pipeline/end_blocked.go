package pipelinenode

import (
	"fmt"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

// EndBlocked answers a rejected message with the canned off-topic response.
// The generator never sees the message; the refusal still becomes part of the
// conversation.
func EndBlocked(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Thread == nil {
		return nil, fmt.Errorf("%w: thread state is missing", contractx.ErrValidation)
	}

	in.FinalResponse = promptx.OffTopicResponse
	in.Thread.Append(statex.RoleAssistant, in.FinalResponse)
	return in, nil
}
