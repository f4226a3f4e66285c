// Package capability assembles the model-backed stages of the chat pipeline:
// the input guard, the travel generator, and the output guard. Both guards
// share one cold model tuned for deterministic verdicts; the generator gets
// the larger chat model plus the travel tool catalog.
package capability

import (
	"context"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/prompt"
)

type registryImpl struct {
	inputGuard  contractx.InputGuard
	outputGuard contractx.OutputGuard
	generator   contractx.Generator
}

var _ contractx.Registry = (*registryImpl)(nil)

// NewRegistry wires prompts, models, and tools into the three pipeline
// capabilities. It fails fast on missing prompts or unreachable model
// construction so the caller never holds a half-built registry.
func NewRegistry(ctx context.Context, cfg llmx.Config, tools []einotool.BaseTool) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	if prompts.InputGuard == "" {
		return nil, fmt.Errorf("%w: input guard", contractx.ErrPromptMissing)
	}
	if prompts.Travel == "" {
		return nil, fmt.Errorf("%w: travel assistant", contractx.ErrPromptMissing)
	}
	if prompts.OutputGuard == "" {
		return nil, fmt.Errorf("%w: output guard", contractx.ErrPromptMissing)
	}

	guardConfig := cfg.GroqFor(contractx.ModelRoleGuard)
	guardModel, err := guardConfig.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create guard model: %v", contractx.ErrModelInvoke, err)
	}

	chatConfig := cfg.GroqFor(contractx.ModelRoleChat)
	chatModel, err := chatConfig.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model: %v", contractx.ErrModelInvoke, err)
	}

	inputGuard, err := newInputGuard(ctx, guardModel, prompts.InputGuard)
	if err != nil {
		return nil, err
	}
	outputGuard, err := newOutputGuard(ctx, guardModel, prompts.OutputGuard)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(ctx, chatModel, prompts.Travel, tools, cfg.MaxToolSteps)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		inputGuard:  inputGuard,
		outputGuard: outputGuard,
		generator:   generator,
	}, nil
}

func (r *registryImpl) InputGuard() contractx.InputGuard { return r.inputGuard }

func (r *registryImpl) OutputGuard() contractx.OutputGuard { return r.outputGuard }

func (r *registryImpl) Generator() contractx.Generator { return r.generator }
