package repository

import (
	subdomain "mailsub-backend/internal/subscription/domain"
)

// SubscriptionRepository defines data access for per-user subscriptions
type SubscriptionRepository interface {
	Create(sub *subdomain.Subscription) error
	Update(sub *subdomain.Subscription) error

	// FindByID loads one subscription with its community sender.
	FindByID(id string) (*subdomain.Subscription, error)

	// FindByUserSenderAccount resolves the (user, sender email, account)
	// unique key. Returns nil, nil when no row exists.
	FindByUserSenderAccount(userID, senderEmail, accountType string) (*subdomain.Subscription, error)

	// FindByUserID returns all of a user's subscriptions with community
	// senders preloaded, for effective-category resolution.
	FindByUserID(userID string) ([]*subdomain.Subscription, error)
}

// CommunitySenderRepository defines data access for the shared
// domain -> category registry.
type CommunitySenderRepository interface {
	FindByID(id string) (*subdomain.CommunitySender, error)
	FindByDomain(domain string) (*subdomain.CommunitySender, error)
	ExistsByDomain(domain string) (bool, error)

	// CreateIfAbsent inserts the entry unless one already exists for its
	// domain. The insert races against concurrent worker ticks, so it
	// relies on the unique index rather than a prior read. Returns true
	// if the row was created.
	CreateIfAbsent(sender *subdomain.CommunitySender) (bool, error)

	Update(sender *subdomain.CommunitySender) error
}

// QueueRepository defines data access for the categorization queue
type QueueRepository interface {
	// EnqueueIfAbsent inserts a pending item unless the domain already
	// has a community entry or a pending/processing/done item. Returns
	// true if a new item was queued.
	EnqueueIfAbsent(item *subdomain.CategorizationQueueItem) (bool, error)

	// NextPending returns the single oldest pending item with attempts
	// remaining, lowest priority number first. Returns nil, nil when the
	// queue is empty.
	NextPending() (*subdomain.CategorizationQueueItem, error)

	Update(item *subdomain.CategorizationQueueItem) error
}

// CategoryCount is one corrected-category tally for a community sender
type CategoryCount struct {
	Category string
	Count    int64
}

// CorrectionRepository defines access to the append-only correction log
type CorrectionRepository interface {
	Create(correction *subdomain.UserCorrection) error
	CountBySender(communitySenderID string) (int64, error)

	// CountByCategory tallies corrections per corrected category for one
	// community sender, ordered by count descending then category name
	// ascending so the consensus tie-break is deterministic.
	CountByCategory(communitySenderID string) ([]CategoryCount, error)
}

// SyncLogRepository defines data access for scan reports
type SyncLogRepository interface {
	Create(log *subdomain.SyncLog) error
	Update(log *subdomain.SyncLog) error
	FindByUserID(userID string, limit int) ([]*subdomain.SyncLog, error)
}
