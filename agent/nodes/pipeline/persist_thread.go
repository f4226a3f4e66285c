package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

func PersistThread(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Thread == nil {
		return nil, fmt.Errorf("%w: thread state is missing", contractx.ErrValidation)
	}

	in.Thread.Touch(in.Now)
	if err := store.Save(ctx, in.Thread); err != nil {
		return nil, err
	}
	return in, nil
}
