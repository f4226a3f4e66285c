package pipelinenode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

func FinalizeResponse(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.FinalResponse)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: pipeline produced empty response", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, ThreadID: in.ThreadID}, nil
}
