package capability

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

type inputGuardImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.InputGuard = (*inputGuardImpl)(nil)

func newInputGuard(ctx context.Context, guardModel einomodel.BaseChatModel, systemPrompt string) (*inputGuardImpl, error) {
	runner, err := compileGuardGraph(ctx, guardModel, systemPrompt, "guard.input_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile input guard graph: %v", contractx.ErrModelInvoke, err)
	}
	return &inputGuardImpl{runner: runner}, nil
}

func (g *inputGuardImpl) Classify(ctx context.Context, req contractx.GuardRequest) (contractx.InputDecision, error) {
	out, err := g.runner.Invoke(ctx, map[string]any{"input": inputGuardPayload(req)})
	if err != nil {
		return contractx.InputDecision{}, fmt.Errorf("%w: classify input: %v", contractx.ErrModelInvoke, err)
	}
	return parseInputVerdict(out.Content), nil
}

type outputGuardImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.OutputGuard = (*outputGuardImpl)(nil)

func newOutputGuard(ctx context.Context, guardModel einomodel.BaseChatModel, systemPrompt string) (*outputGuardImpl, error) {
	runner, err := compileGuardGraph(ctx, guardModel, systemPrompt, "guard.output_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile output guard graph: %v", contractx.ErrModelInvoke, err)
	}
	return &outputGuardImpl{runner: runner}, nil
}

func (g *outputGuardImpl) Review(ctx context.Context, req contractx.ReviewRequest) (contractx.OutputDecision, error) {
	out, err := g.runner.Invoke(ctx, map[string]any{"input": reviewPayload(req)})
	if err != nil {
		return contractx.OutputDecision{}, fmt.Errorf("%w: review output: %v", contractx.ErrModelInvoke, err)
	}
	return parseOutputVerdict(out.Content), nil
}

// compileGuardGraph builds the single-shot verdict graph both gates share:
// system prompt, one user payload, one completion.
func compileGuardGraph(
	ctx context.Context,
	guardModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add guard prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", guardModel); err != nil {
		return nil, fmt.Errorf("add guard model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add guard edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add guard edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add guard edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile guard graph: %w", err)
	}
	return runner, nil
}

// inputGuardPayload renders the message the input gate classifies. History
// rides along so short follow-ups are judged in context.
func inputGuardPayload(req contractx.GuardRequest) string {
	if req.HistoryDigest != "" {
		return "## Recent conversation history\n" + req.HistoryDigest +
			"\n\n## Latest user message to classify\n" + req.Latest
	}
	return "## Latest user message to classify\n" + req.Latest
}

func reviewPayload(req contractx.ReviewRequest) string {
	return "## User's question\n" + req.Question +
		"\n\n## Assistant's response to review\n" + req.Answer
}

// parseInputVerdict reads the one-line verdict leniently: any casing of
// "blocked" anywhere blocks, everything else allows. An unparseable verdict
// therefore fails open.
func parseInputVerdict(content string) contractx.InputDecision {
	verdict := strings.TrimSpace(content)
	if strings.Contains(strings.ToLower(verdict), "blocked") {
		return contractx.InputDecision{
			Verdict: contractx.VerdictBlocked,
			Reason:  verdictReason(verdict),
		}
	}
	return contractx.InputDecision{Verdict: contractx.VerdictAllowed}
}

func parseOutputVerdict(content string) contractx.OutputDecision {
	verdict := strings.TrimSpace(content)
	if strings.Contains(strings.ToLower(verdict), "unsafe") {
		return contractx.OutputDecision{
			Safe:   false,
			Reason: verdictReason(verdict),
		}
	}
	return contractx.OutputDecision{Safe: true}
}

func verdictReason(verdict string) string {
	_, reason, found := strings.Cut(verdict, "|")
	if !found {
		return ""
	}
	return strings.TrimSpace(reason)
}
