// Package chat – completion client
//
// This file implements the remote-completion side of the chat assistant: a
// thin HTTP client for an OpenAI-style chat-completions endpoint. It carries
// the fixed domain-scoping system prompt and the fixed sampling parameters;
// conversation-window management lives in conversation.go.
//
// A missing API credential is a recognized precondition (ErrNotConfigured),
// not a transport failure, so callers can pick the matching user-facing
// fallback text.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Roles carried in completion requests and conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemPrompt is the fixed domain-scoping preamble sent with every
// completion call.
const SystemPrompt = `You are an expert real estate education assistant. Your role is to help students learn about:

1. Real Estate Law and Regulations
2. Property Valuation and Appraisal
3. Market Analysis and Investment Strategies
4. Property Management and Maintenance
5. Real Estate Finance and Mortgages
6. Commercial vs Residential Real Estate
7. Real Estate Marketing and Sales
8. Ethics and Professional Standards

Guidelines:
- Provide clear, educational explanations
- Use practical examples when possible
- Reference current market trends when relevant
- Encourage ethical practices in real estate
- Keep responses professional and informative
- Suggest additional learning resources when appropriate

Always maintain a supportive and encouraging tone for students learning real estate concepts.`

// ErrNotConfigured is returned by Complete when no API key is set.
var ErrNotConfigured = errors.New("completion API key not configured")

// Turn is one role-tagged message unit in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces an assistant reply for an ordered list of turns.
// Implementations should be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint over
// HTTPS with a bearer-token credential. The zero value is not usable; build
// one with NewOpenAIClient.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewOpenAIClient constructs a client for the given credential. An empty
// apiKey is allowed; Complete then fails with ErrNotConfigured. baseURL
// falls back to the public OpenAI endpoint; httpc falls back to
// http.DefaultClient (no call timeout; callers own cancellation via ctx).
func NewOpenAIClient(apiKey, baseURL, model string, httpc *http.Client) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &OpenAIClient{apiKey: apiKey, baseURL: baseURL, model: model, http: httpc}
}

// Configured reports whether a credential is present.
func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

// completionRequest is the JSON body of one chat-completions call.
type completionRequest struct {
	Model            string  `json:"model"`
	Messages         []Turn  `json:"messages"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
}

// completionResponse is the subset of the response body we consume.
type completionResponse struct {
	Choices []struct {
		Message Turn `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the system prompt followed by turns and returns the
// assistant's reply text. Sampling parameters are fixed: bounded output
// length, moderate randomness, small repetition penalties.
func (c *OpenAIClient) Complete(ctx context.Context, turns []Turn) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	msgs := make([]Turn, 0, len(turns)+1)
	msgs = append(msgs, Turn{Role: RoleSystem, Content: SystemPrompt})
	msgs = append(msgs, turns...)

	body, err := json.Marshal(completionRequest{
		Model:            c.model,
		Messages:         msgs,
		MaxTokens:        500,
		Temperature:      0.7,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("completion API: malformed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("completion API error: %s", msg)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("completion API: empty assistant message")
	}
	return out.Choices[0].Message.Content, nil
}
