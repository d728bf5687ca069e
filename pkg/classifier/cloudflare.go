package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultCloudflareBaseURL = "https://api.cloudflare.com/client/v4/accounts"
	cloudflareModel          = "@cf/meta/llama-3-8b-instruct"
)

// CloudflareClassifier calls Cloudflare Workers AI.
type CloudflareClassifier struct {
	apiKey     string
	accountID  string
	baseURL    string
	httpClient *http.Client
}

func NewCloudflareClassifier(apiKey, accountID string) *CloudflareClassifier {
	return &CloudflareClassifier{
		apiKey:     apiKey,
		accountID:  accountID,
		baseURL:    defaultCloudflareBaseURL,
		httpClient: http.DefaultClient,
	}
}

// NewCloudflareClassifierWithBaseURL is used by tests to point the
// client at a local server.
func NewCloudflareClassifierWithBaseURL(apiKey, accountID, baseURL string) *CloudflareClassifier {
	c := NewCloudflareClassifier(apiKey, accountID)
	c.baseURL = baseURL
	return c
}

func (c *CloudflareClassifier) Name() string { return "cloudflare" }

type cloudflareResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
}

func (c *CloudflareClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s/ai/run/%s", c.baseURL, c.accountID, cloudflareModel)

	payload := map[string]interface{}{
		"messages": []chatMessage{{Role: "user", Content: prompt}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudflare request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cloudflare response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudflare API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed cloudflareResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("cloudflare: %w", ErrInvalidResponse)
	}
	if parsed.Result.Response == "" {
		return "", fmt.Errorf("cloudflare: %w", ErrInvalidResponse)
	}
	return parsed.Result.Response, nil
}
