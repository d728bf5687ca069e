package domain

import "time"

// CommunitySender is the shared domain -> category record consulted by
// every user's scans. Created once per domain by the categorization
// worker (or its force-resolve fallback) and only rewritten by the
// correction consensus.
type CommunitySender struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Domain          string    `json:"domain" gorm:"uniqueIndex;not null"`
	SenderName      string    `json:"sender_name" gorm:"not null"`
	Category        string    `json:"category" gorm:"not null"`
	ConfidenceScore float64   `json:"confidence_score"` // 0..100
	VerifiedCount   int       `json:"verified_count" gorm:"default:0"`
	CorrectionCount int       `json:"correction_count" gorm:"default:0"`
	CategorizedBy   string    `json:"categorized_by"` // groq, gemini, cloudflare, anthropic, fallback
	IsTrusted       bool      `json:"is_trusted" gorm:"default:false"`
	IsSpam          bool      `json:"is_spam" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
