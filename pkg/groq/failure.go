package groq

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolUseFailedError reports Groq's tool_use_failed rejection: the model
// produced text that could not be parsed as a tool call, and the API returned
// the raw generation in the error body instead of a completion.
type ToolUseFailedError struct {
	RawGeneration string
	cause         error
}

func (e *ToolUseFailedError) Error() string {
	return fmt.Sprintf("groq: tool use failed: %v", e.cause)
}

func (e *ToolUseFailedError) Unwrap() error { return e.cause }

// Classify converts known Groq failure bodies into typed errors and returns
// everything else unchanged. Error-body sniffing stays inside this package;
// callers match with errors.As.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if strings.Contains(msg, "tool_use_failed") && strings.Contains(msg, "failed_generation") {
		return &ToolUseFailedError{
			RawGeneration: extractFailedGeneration(msg),
			cause:         err,
		}
	}
	return err
}

// extractFailedGeneration pulls the raw generation text out of the JSON error
// body. Best effort: an empty string means the body did not parse.
func extractFailedGeneration(msg string) string {
	const marker = `"failed_generation"`

	idx := strings.Index(msg, marker)
	if idx < 0 {
		return ""
	}
	rest := msg[idx+len(marker):]

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return ""
	}
	rest = strings.TrimSpace(rest[colon+1:])

	var raw string
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&raw); err != nil {
		return ""
	}
	return raw
}
