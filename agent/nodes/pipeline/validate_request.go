package pipelinenode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidThread  = errors.New("thread id is empty")
)

type GraphInput struct {
	ThreadID string
	Text     string

	// Emit, when set, receives answer fragments as the generator produces
	// them. Nil means the caller wants a single blocking reply.
	Emit func(fragment string)
}

type GraphOutput struct {
	Reply    string
	ThreadID string
}

type GraphState struct {
	ThreadID string
	Text     string
	Now      time.Time
	Emit     func(fragment string)

	Thread *statex.ThreadState

	Verdict         contractx.Verdict
	RejectionReason string

	RawAnswer    string
	OutputSafe   bool
	OutputReason string

	FinalResponse string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ThreadID: threadID,
		Text:     text,
		Now:      nowFn().UTC(),
		Emit:     in.Emit,
		Verdict:  contractx.VerdictPending,
	}, nil
}
