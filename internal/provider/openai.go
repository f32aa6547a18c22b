package provider

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #endregion

// #region types

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	c       *http.Client
}

// #endregion

// #region constructor

// NewOpenAI creates a chat completions client. Empty baseURL and model use the defaults.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		c:       &http.Client{Timeout: 60 * time.Second},
	}
}

// #endregion

// #region generate

// Name returns "openai".
func (o *OpenAI) Name() string { return "openai" }

// Generate posts a single-turn chat completion.
func (o *OpenAI) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	body := chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if structured {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
		// json_object mode requires the word "json" somewhere in the messages.
		if !strings.Contains(strings.ToLower(prompt), "json") {
			body.Messages = append(body.Messages, chatMessage{Role: "system", Content: "Respond strictly in JSON format."})
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai %s: %s", resp.Status, string(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// #endregion
