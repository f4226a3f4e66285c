package contract

import (
	"context"

	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

type InputGuard interface {
	Classify(ctx context.Context, req GuardRequest) (InputDecision, error)
}

type OutputGuard interface {
	Review(ctx context.Context, req ReviewRequest) (OutputDecision, error)
}

// Generator produces assistant replies. Implementations recover from model
// failures internally and always return displayable text.
type Generator interface {
	Generate(ctx context.Context, history []statex.Turn) string
	GenerateStream(ctx context.Context, history []statex.Turn, emit func(fragment string)) string
}

type Registry interface {
	InputGuard() InputGuard
	OutputGuard() OutputGuard
	Generator() Generator
}
