package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/carebot/internal/core"
)

// OpenAICompatible speaks the /v1/chat/completions dialect shared by OpenAI,
// OpenRouter and self-hosted gateways. It implements core.Generator.
type OpenAICompatible struct {
	baseProvider
	authHeader  string
	authPrefix  string
	temperature float64
}

type OpenAICompatibleConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	AuthHeader  string // e.g., "Authorization"
	AuthPrefix  string // e.g., "Bearer "
	Temperature float64
	Timeout     time.Duration
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		temperature:  cfg.Temperature,
	}
}

func (o *OpenAICompatible) Generate(ctx context.Context, system string, history []core.Message) (string, error) {
	messages := make([]core.Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: system})
	}
	messages = append(messages, history...)

	payload := map[string]any{
		"model":       o.model,
		"messages":    messages,
		"temperature": o.temperature,
	}

	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return parseChatResponse(resp)
}

func parseChatResponse(resp *http.Response) (string, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %s", string(data))
	}
	return result.Choices[0].Message.Content, nil
}
