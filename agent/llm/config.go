package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	groqx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/groq"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	GuardModel         string        `envconfig:"GUARD_MODEL" split_words:"true" default:"llama-3.1-8b-instant"`
	ChatModel          string        `envconfig:"CHAT_MODEL" split_words:"true" default:"meta-llama/llama-4-scout-17b-16e-instruct"`
	GuardTemperature   float32       `envconfig:"GUARD_TEMPERATURE" split_words:"true" default:"0"`
	ChatTemperature    float32       `envconfig:"CHAT_TEMPERATURE" split_words:"true" default:"0.4"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxToolSteps       int           `envconfig:"MAX_TOOL_STEPS" split_words:"true" default:"10"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: groq api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.GuardModel) == "" {
		return fmt.Errorf("%w: guard model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.ChatModel) == "" {
		return fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	return nil
}

// GroqFor maps a model role onto a concrete Groq client config. The guard
// role runs cold for deterministic verdicts; the chat role keeps a little
// warmth for conversational replies.
func (c Config) GroqFor(role contractx.ModelRole) groqx.Config {
	modelName := strings.TrimSpace(c.GuardModel)
	temp := c.GuardTemperature

	if role == contractx.ModelRoleChat {
		modelName = strings.TrimSpace(c.ChatModel)
		temp = c.ChatTemperature
	}

	maxCompletionToken := c.MaxCompletionToken
	return groqx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
