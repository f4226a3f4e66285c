package pipelinenode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

// LoadThread fetches the conversation for the thread, creating a fresh one on
// first contact, and appends the incoming user turn to the working copy. The
// turn reaches the store only when PersistThread runs.
func LoadThread(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := loadOrCreateThread(ctx, store, in.ThreadID, in.Now)
	if err != nil {
		return nil, err
	}
	st.Append(statex.RoleUser, in.Text)
	in.Thread = st
	return in, nil
}

func loadOrCreateThread(ctx context.Context, store statex.Store, threadID string, now time.Time) (*statex.ThreadState, error) {
	st, err := store.Load(ctx, threadID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}

	return statex.NewThreadState(threadID, now), nil
}
