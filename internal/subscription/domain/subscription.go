package domain

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	StatusActive       SubscriptionStatus = "active"
	StatusPending      SubscriptionStatus = "pending"
	StatusUnsubscribed SubscriptionStatus = "unsubscribed"
)

// UnsubscribeType classifies how a sender can be unsubscribed from
type UnsubscribeType string

const (
	UnsubscribeOneClick UnsubscribeType = "one-click"
	UnsubscribeLink     UnsubscribeType = "link"
	UnsubscribeMailto   UnsubscribeType = "mailto"
)

// Subscription is one bulk sender as seen by one user on one mail
// account. Unique per (user, sender email, account type); created on
// first detection during a scan and only ever status-transitioned
// afterwards, never deleted.
type Subscription struct {
	ID                string             `json:"id" gorm:"primaryKey"`
	UserID            string             `json:"user_id" gorm:"uniqueIndex:idx_user_sender_account;not null"`
	SenderEmail       string             `json:"sender_email" gorm:"uniqueIndex:idx_user_sender_account;not null"`
	AccountType       string             `json:"account_type" gorm:"uniqueIndex:idx_user_sender_account;not null"` // gmail, outlook
	SenderName        string             `json:"sender_name"`
	CommunitySenderID *string            `json:"community_sender_id,omitempty" gorm:"index"`
	CommunitySender   *CommunitySender   `json:"community_sender,omitempty" gorm:"foreignKey:CommunitySenderID"`
	TotalEmailCount   int                `json:"total_email_count" gorm:"default:0"`
	EmailCount30Days  int                `json:"email_count_30days" gorm:"default:0"`
	FirstEmailAt      *time.Time         `json:"first_email_at,omitempty"`
	LastEmailAt       *time.Time         `json:"last_email_at,omitempty"`
	UnsubscribeLink   string             `json:"unsubscribe_link,omitempty" gorm:"type:text"`
	UnsubscribeMailto string             `json:"unsubscribe_mailto,omitempty"`
	UnsubscribeType   UnsubscribeType    `json:"unsubscribe_type,omitempty"`
	Status            SubscriptionStatus `json:"status" gorm:"default:active"`
	UnsubscribedAt    *time.Time         `json:"unsubscribed_at,omitempty"`
	CustomCategory    string             `json:"custom_category,omitempty"` // user override, wins over community
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// EffectiveCategory resolves the category shown to the user: their own
// override first, then the linked community entry, then "Other". The
// community category is read through the association, so a later
// consensus update propagates without touching the subscription row.
func (s *Subscription) EffectiveCategory() string {
	if s.CustomCategory != "" {
		return s.CustomCategory
	}
	if s.CommunitySender != nil && s.CommunitySender.Category != "" {
		return s.CommunitySender.Category
	}
	return CategoryOther
}

// HasUnsubscribeMethod reports whether any unsubscribe descriptor was
// extracted for this sender.
func (s *Subscription) HasUnsubscribeMethod() bool {
	return s.UnsubscribeLink != "" || s.UnsubscribeMailto != ""
}
