package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClassifier calls Groq's OpenAI-compatible chat completion API.
type GroqClassifier struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGroqClassifier(apiKey, model string) *GroqClassifier {
	return &GroqClassifier{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGroqBaseURL,
		httpClient: http.DefaultClient,
	}
}

// NewGroqClassifierWithBaseURL is used by tests to point the client at
// a local server.
func NewGroqClassifierWithBaseURL(apiKey, model, baseURL string) *GroqClassifier {
	c := NewGroqClassifier(apiKey, model)
	c.baseURL = baseURL
	return c
}

func (c *GroqClassifier) Name() string { return "groq" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *GroqClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   20,
		Temperature: 0.1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("groq response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("groq: %w", ErrInvalidResponse)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("groq: %w", ErrInvalidResponse)
	}
	return parsed.Choices[0].Message.Content, nil
}
