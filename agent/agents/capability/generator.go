package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
	groqx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/groq"
)

type generatorImpl struct {
	agent       *react.Agent
	plainRunner compose.Runnable[[]*schema.Message, *schema.Message]
}

var _ contractx.Generator = (*generatorImpl)(nil)

func newGenerator(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools []einotool.BaseTool,
	maxSteps int,
) (*generatorImpl, error) {
	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools,
		},
		MessageModifier: func(_ context.Context, input []*schema.Message) []*schema.Message {
			return append([]*schema.Message{schema.SystemMessage(systemPrompt)}, input...)
		},
		MaxStep: maxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create travel agent: %v", contractx.ErrModelInvoke, err)
	}

	plainRunner, err := compilePlainChatGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}

	return &generatorImpl{agent: agent, plainRunner: plainRunner}, nil
}

// compilePlainChatGraph is the no-tools retry path: the same chat model and
// system prompt, minus the tool binding that made Groq choke.
func compilePlainChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()

	if err := graph.AddLambdaNode("prepend_system",
		compose.InvokableLambda(func(_ context.Context, input []*schema.Message) ([]*schema.Message, error) {
			return append([]*schema.Message{schema.SystemMessage(systemPrompt)}, input...), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add plain chat prepend node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add plain chat model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prepend_system"); err != nil {
		return nil, fmt.Errorf("add plain chat edge start->prepend: %w", err)
	}
	if err := graph.AddEdge("prepend_system", "model"); err != nil {
		return nil, fmt.Errorf("add plain chat edge prepend->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add plain chat edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("generator.plain_chat_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile plain chat graph: %w", err)
	}
	return runner, nil
}

func (g *generatorImpl) Generate(ctx context.Context, history []statex.Turn) string {
	msgs := toMessages(history)

	reply, err := g.agent.Generate(ctx, msgs)
	if err != nil {
		return g.recover(ctx, msgs, err)
	}
	return reply.Content
}

func (g *generatorImpl) GenerateStream(ctx context.Context, history []statex.Turn, emit func(fragment string)) string {
	msgs := toMessages(history)

	reader, err := g.agent.Stream(ctx, msgs)
	if err != nil {
		return g.recover(ctx, msgs, err)
	}
	defer reader.Close()

	var full strings.Builder
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if full.Len() > 0 {
				// Fragments already reached the client; the reply stays
				// whatever was voiced so far.
				log.Warn().Err(err).Msg("stream interrupted, keeping partial response")
				return full.String()
			}
			return g.recover(ctx, msgs, err)
		}
		if chunk == nil || len(chunk.ToolCalls) > 0 || chunk.Content == "" {
			continue
		}
		emit(chunk.Content)
		full.WriteString(chunk.Content)
	}

	if full.Len() == 0 {
		return g.recover(ctx, msgs, errors.New("stream produced no content"))
	}
	return full.String()
}

// recover turns any generation failure into displayable text. A Groq tool-use
// failure gets one retry on the plain graph; everything else, and a failed
// retry, falls back to the canned apology.
func (g *generatorImpl) recover(ctx context.Context, msgs []*schema.Message, cause error) string {
	var toolFailure *groqx.ToolUseFailedError
	if !errors.As(cause, &toolFailure) {
		log.Warn().Err(cause).Msg("travel generation failed")
		return promptx.FallbackResponse
	}

	log.Warn().Msg("groq tool_use_failed, retrying without tools")
	reply, err := g.plainRunner.Invoke(ctx, msgs)
	if err != nil {
		log.Error().Err(err).Msg("retry without tools also failed")
		return promptx.FallbackResponse
	}
	return reply.Content
}

func toMessages(history []statex.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == statex.RoleAssistant {
			msgs = append(msgs, schema.AssistantMessage(turn.Text, nil))
			continue
		}
		msgs = append(msgs, schema.UserMessage(turn.Text))
	}
	return msgs
}
