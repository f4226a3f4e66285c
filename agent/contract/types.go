package contract

type ModelRole string

const (
	ModelRoleGuard ModelRole = "guard"
	ModelRoleChat  ModelRole = "chat"
)

type Verdict string

const (
	VerdictPending Verdict = "pending"
	VerdictAllowed Verdict = "allowed"
	VerdictBlocked Verdict = "blocked"
)

type GuardRequest struct {
	HistoryDigest string `json:"history_digest,omitempty"`
	Latest        string `json:"latest"`
}

type InputDecision struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason,omitempty"`
}

type ReviewRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type OutputDecision struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

type StreamEventKind string

const (
	StreamEventFragment StreamEventKind = "fragment"
	StreamEventDone     StreamEventKind = "done"
)

type StreamEvent struct {
	Kind     StreamEventKind `json:"kind"`
	Fragment string          `json:"fragment,omitempty"`
	ThreadID string          `json:"thread_id,omitempty"`
}
