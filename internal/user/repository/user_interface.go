package repository

import (
	"time"

	userdomain "mailsub-backend/internal/user/domain"
)

// UserRepository defines data access for users and their per-provider
// sync state.
type UserRepository interface {
	Create(user *userdomain.User) error
	FindByID(id string) (*userdomain.User, error)
	FindByEmail(email string) (*userdomain.User, error)
	Update(user *userdomain.User) error

	// FindAll returns every user, for the background sync sweep.
	FindAll() ([]*userdomain.User, error)

	// SaveSyncState commits a new resume token and last-sync timestamp
	// for one account in a single update. Called only after a scan pass
	// fully succeeds.
	SaveSyncState(userID, accountType, resumeToken string, syncedAt time.Time) error
}
