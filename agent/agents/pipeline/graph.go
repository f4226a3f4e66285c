package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/nodes/pipeline"
)

func (p *Pipeline) compileRespondGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, p.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_thread",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadThread(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_thread: %w", err)
	}

	if err := graph.AddLambdaNode("classify_input",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyInput(ctx, in, p.models.InputGuard())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_input: %w", err)
	}

	if err := graph.AddLambdaNode("end_blocked",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.EndBlocked(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node end_blocked: %w", err)
	}

	if err := graph.AddLambdaNode("generate_answer",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GenerateAnswer(ctx, in, p.models.Generator())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_answer: %w", err)
	}

	if err := graph.AddLambdaNode("review_answer",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ReviewAnswer(ctx, in, p.models.OutputGuard())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node review_answer: %w", err)
	}

	if err := graph.AddLambdaNode("persist_thread",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistThread(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_thread: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeResponse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_response: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Verdict == contractx.VerdictBlocked {
				return "end_blocked", nil
			}
			return "generate_answer", nil
		},
		map[string]bool{
			"end_blocked":     true,
			"generate_answer": true,
		},
	)
	if err := graph.AddBranch("classify_input", branch); err != nil {
		return nil, fmt.Errorf("add input gate branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_thread"},
		{"load_thread", "classify_input"},
		{"generate_answer", "review_answer"},
		{"review_answer", "persist_thread"},
		{"end_blocked", "persist_thread"},
		{"persist_thread", "finalize_response"},
		{"finalize_response", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("pipeline.respond"))
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return runner, nil
}
