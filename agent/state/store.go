package state

import (
	"context"
	"errors"
)

var (
	ErrStateNotFound  = errors.New("thread state not found")
	ErrNilThreadState = errors.New("thread state is nil")
	ErrInvalidThread  = errors.New("thread id is empty")
)

// Store is the persistence contract used by the pipeline.
type Store interface {
	Load(ctx context.Context, threadID string) (*ThreadState, error)
	Save(ctx context.Context, st *ThreadState) error
	Delete(ctx context.Context, threadID string) error
}
