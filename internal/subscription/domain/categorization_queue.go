package domain

import "time"

// QueueStatus is the lifecycle state of a categorization queue item
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueDone       QueueStatus = "done"
	QueueFailed     QueueStatus = "failed"
)

// DefaultMaxAttempts bounds how many worker ticks may try one domain
// before it is force-resolved to "Other".
const DefaultMaxAttempts = 3

// CategorizationQueueItem is one domain waiting for AI classification.
// At most one non-terminal item exists per domain; an item that
// exhausts its attempts still produces a community entry so the domain
// is never retried forever.
type CategorizationQueueItem struct {
	ID               string      `json:"id" gorm:"primaryKey"`
	Domain           string      `json:"domain" gorm:"index;not null"`
	SenderName       string      `json:"sender_name"`
	SenderEmail      string      `json:"sender_email"`
	SampleSubjects   string      `json:"sample_subjects" gorm:"type:text"` // JSON array, up to 3 entries
	Status           QueueStatus `json:"status" gorm:"index;default:pending"`
	Priority         int         `json:"priority" gorm:"default:5"` // lower processes first
	Attempts         int         `json:"attempts" gorm:"default:0"`
	MaxAttempts      int         `json:"max_attempts" gorm:"default:3"`
	AssignedCategory string      `json:"assigned_category"`
	AIProvider       string      `json:"ai_provider"`
	ErrorMessage     string      `json:"error_message" gorm:"type:text"`
	CreatedAt        time.Time   `json:"created_at"`
	ProcessedAt      *time.Time  `json:"processed_at,omitempty"`
}

// Terminal reports whether the item has reached a final state.
func (q *CategorizationQueueItem) Terminal() bool {
	return q.Status == QueueDone || q.Status == QueueFailed
}
