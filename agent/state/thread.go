package state

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ThreadState is the persistent record of one conversation thread. History
// holds every accepted turn in order; answers that fail the output review
// are replaced before they reach this record.
type ThreadState struct {
	ThreadID  string    `json:"thread_id"`
	History   []Turn    `json:"history,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewThreadState(threadID string, now time.Time) *ThreadState {
	return &ThreadState{
		ThreadID:  threadID,
		UpdatedAt: now.UTC(),
	}
}

func (t *ThreadState) Append(role Role, text string) {
	t.History = append(t.History, Turn{Role: role, Text: text})
}

func (t *ThreadState) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}

// Clone returns a deep copy so callers can mutate without racing the store.
func (t *ThreadState) Clone() *ThreadState {
	if t == nil {
		return nil
	}
	out := &ThreadState{
		ThreadID:  t.ThreadID,
		UpdatedAt: t.UpdatedAt,
	}
	if len(t.History) > 0 {
		out.History = make([]Turn, len(t.History))
		copy(out.History, t.History)
	}
	return out
}

// LastUserText returns the most recent user turn in history, or "".
func LastUserText(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Text
		}
	}
	return ""
}
