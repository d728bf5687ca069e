package repository

import (
	"errors"
	"fmt"
	"time"

	userdomain "mailsub-backend/internal/user/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(user *userdomain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*userdomain.User, error) {
	var user userdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*userdomain.User, error) {
	var user userdomain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *userdomain.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

func (r *userRepository) FindAll() ([]*userdomain.User, error) {
	var users []*userdomain.User
	err := r.db.Find(&users).Error
	return users, err
}

func (r *userRepository) SaveSyncState(userID, accountType, resumeToken string, syncedAt time.Time) error {
	var updates map[string]interface{}
	switch accountType {
	case userdomain.AccountGmail:
		updates = map[string]interface{}{
			"gmail_sync_token": resumeToken,
			"gmail_last_sync":  syncedAt,
			"updated_at":       time.Now(),
		}
	case userdomain.AccountOutlook:
		updates = map[string]interface{}{
			"outlook_delta_token": resumeToken,
			"outlook_last_sync":   syncedAt,
			"updated_at":          time.Now(),
		}
	default:
		return fmt.Errorf("unknown account type: %s", accountType)
	}
	return r.db.Model(&userdomain.User{}).Where("id = ?", userID).Updates(updates).Error
}
