package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqClassify(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Shopping"}},
			},
		})
	}))
	defer server.Close()

	c := NewGroqClassifierWithBaseURL("key", "llama-3.1-8b-instant", server.URL)
	answer, err := c.Classify(context.Background(), "categorize fresh.com")
	require.NoError(t, err)

	assert.Equal(t, "Shopping", answer)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "llama-3.1-8b-instant", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "categorize fresh.com", gotReq.Messages[0].Content)
}

func TestGroqMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>gateway error</html>"},
		{name: "no choices", body: `{"choices": []}`},
		{name: "empty content", body: `{"choices": [{"message": {"content": ""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewGroqClassifierWithBaseURL("key", "m", server.URL)
			_, err := c.Classify(context.Background(), "prompt")
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestGroqHTTPErrorIsNotInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewGroqClassifierWithBaseURL("key", "m", server.URL)
	_, err := c.Classify(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidResponse)
}

func TestGeminiClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "News"}},
				}},
			},
		})
	}))
	defer server.Close()

	c := NewGeminiClassifierWithBaseURL("key", server.URL)
	answer, err := c.Classify(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "News", answer)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	c := NewGeminiClassifierWithBaseURL("key", server.URL)
	_, err := c.Classify(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCloudflareClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct-1/ai/run/@cf/meta/llama-3-8b-instruct", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result":  map[string]string{"response": "Finance"},
			"success": true,
		})
	}))
	defer server.Close()

	c := NewCloudflareClassifierWithBaseURL("key", "acct-1", server.URL)
	answer, err := c.Classify(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Finance", answer)
}

func TestCloudflareEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"response": ""}, "success": true}`))
	}))
	defer server.Close()

	c := NewCloudflareClassifierWithBaseURL("key", "acct-1", server.URL)
	_, err := c.Classify(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNewChainOrderAndFiltering(t *testing.T) {
	chain := NewChain(Config{
		GroqAPIKey:          "g",
		GroqModel:           "m",
		CloudflareAPIKey:    "c",
		CloudflareAccountID: "acct",
		AnthropicAPIKey:     "a",
		AnthropicModel:      "claude-3-5-haiku-latest",
	})

	require.Len(t, chain, 3, "gemini is skipped without a key")
	assert.Equal(t, "groq", chain[0].Name())
	assert.Equal(t, "cloudflare", chain[1].Name())
	assert.Equal(t, "anthropic", chain[2].Name())

	assert.Empty(t, NewChain(Config{}))
	assert.Empty(t, NewChain(Config{CloudflareAPIKey: "c"}), "cloudflare needs both key and account id")
}
