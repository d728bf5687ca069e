package domain

import "time"

// SyncStatus is the outcome of one scan pass
type SyncStatus string

const (
	SyncRunning SyncStatus = "running"
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
)

// SyncLog is the per-pass scan report. One row per invocation of the
// sync engine, success or not.
type SyncLog struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"index;not null"`
	AccountType     string     `json:"account_type"` // gmail, outlook
	SyncType        string     `json:"sync_type"`    // full, incremental
	EmailsScanned   int        `json:"emails_scanned" gorm:"default:0"`
	NewSendersFound int        `json:"new_senders_found" gorm:"default:0"`
	Status          SyncStatus `json:"status"`
	ErrorMessage    string     `json:"error_message" gorm:"type:text"`
	DurationMs      int64      `json:"duration_ms"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
