package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClassifier calls the Gemini generateContent API.
type GeminiClassifier struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClassifier(apiKey string) *GeminiClassifier {
	return &GeminiClassifier{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		httpClient: http.DefaultClient,
	}
}

// NewGeminiClassifierWithBaseURL is used by tests to point the client
// at a local server.
func NewGeminiClassifierWithBaseURL(apiKey, baseURL string) *GeminiClassifier {
	c := NewGeminiClassifier(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *GeminiClassifier) Name() string { return "gemini" }

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	url := c.baseURL + "/models/gemini-1.5-flash:generateContent?key=" + c.apiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: %w", ErrInvalidResponse)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrInvalidResponse)
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrInvalidResponse)
	}
	return text, nil
}
