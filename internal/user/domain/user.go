package domain

import "time"

// Account type identifiers used across sync state, subscriptions and
// sync logs.
const (
	AccountGmail   = "gmail"
	AccountOutlook = "outlook"
)

// User holds the mail-account credentials and per-provider sync state.
// Resume tokens are only overwritten after a scan pass fully succeeds;
// a failed pass leaves the previous token so the next run resumes from
// the last known-good point.
type User struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`

	// Gmail account
	GmailConnected    bool       `json:"gmail_connected" gorm:"default:false"`
	GmailAccessToken  string     `json:"-" gorm:"type:text"`
	GmailRefreshToken string     `json:"-" gorm:"type:text"`
	GmailTokenExpiry  *time.Time `json:"-"`
	GmailSyncToken    string     `json:"-" gorm:"type:text"` // Gmail history id
	GmailLastSync     *time.Time `json:"gmail_last_sync,omitempty"`

	// Outlook account
	OutlookConnected    bool       `json:"outlook_connected" gorm:"default:false"`
	OutlookAccessToken  string     `json:"-" gorm:"type:text"`
	OutlookRefreshToken string     `json:"-" gorm:"type:text"`
	OutlookTokenExpiry  *time.Time `json:"-"`
	OutlookDeltaToken   string     `json:"-" gorm:"type:text"` // Graph delta link
	OutlookLastSync     *time.Time `json:"outlook_last_sync,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConnectedAccounts lists the account types this user has linked.
func (u *User) ConnectedAccounts() []string {
	var accounts []string
	if u.GmailConnected {
		accounts = append(accounts, AccountGmail)
	}
	if u.OutlookConnected {
		accounts = append(accounts, AccountOutlook)
	}
	return accounts
}
