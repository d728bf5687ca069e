package classifier

import "log"

// Config holds classifier provider credentials. Providers without
// credentials are left out of the chain.
type Config struct {
	GroqAPIKey          string
	GroqModel           string
	GeminiAPIKey        string
	CloudflareAPIKey    string
	CloudflareAccountID string
	AnthropicAPIKey     string
	AnthropicModel      string
}

// NewChain builds the fallback chain in fixed priority order:
// Groq, then Gemini, then Cloudflare, then Anthropic. The worker tries
// them front to back until one yields a valid label.
func NewChain(cfg Config) []Classifier {
	var chain []Classifier
	if cfg.GroqAPIKey != "" {
		chain = append(chain, NewGroqClassifier(cfg.GroqAPIKey, cfg.GroqModel))
	}
	if cfg.GeminiAPIKey != "" {
		chain = append(chain, NewGeminiClassifier(cfg.GeminiAPIKey))
	}
	if cfg.CloudflareAPIKey != "" && cfg.CloudflareAccountID != "" {
		chain = append(chain, NewCloudflareClassifier(cfg.CloudflareAPIKey, cfg.CloudflareAccountID))
	}
	if cfg.AnthropicAPIKey != "" {
		chain = append(chain, NewAnthropicClassifier(cfg.AnthropicAPIKey, cfg.AnthropicModel))
	}
	if len(chain) == 0 {
		log.Println("[AI] no classifier providers configured; queue items will force-resolve to Other")
	}
	return chain
}
