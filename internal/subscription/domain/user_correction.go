package domain

import "time"

// UserCorrection records one user recategorizing a sender that carries
// a community entry. Append-only; the consensus recompute only ever
// reads these in aggregate.
type UserCorrection struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"index;not null"`
	CommunitySenderID string    `json:"community_sender_id" gorm:"index;not null"`
	OriginalCategory  string    `json:"original_category"`
	CorrectedCategory string    `json:"corrected_category"`
	CreatedAt         time.Time `json:"created_at"`
}

// Consensus thresholds: a community category is only overwritten once
// at least CorrectionQuorum corrections exist and the top corrected
// category holds at least ConsensusAgreement of them.
const (
	CorrectionQuorum   = 10
	ConsensusAgreement = 0.7
)
