package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/input_guard.txt
	inputGuardRaw string

	//go:embed template/travel_assistant.txt
	travelRaw string

	//go:embed template/output_guard.txt
	outputGuardRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	InputGuard  string
	Travel      string
	OutputGuard string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		InputGuard:  strings.TrimSpace(inputGuardRaw),
		Travel:      strings.TrimSpace(travelRaw),
		OutputGuard: strings.TrimSpace(outputGuardRaw),
	}
}
