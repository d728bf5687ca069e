package repository

import (
	"errors"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// subscriptionRepository implements SubscriptionRepository using GORM
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new instance of subscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *subdomain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) Update(sub *subdomain.Subscription) error {
	sub.UpdatedAt = time.Now()
	// Omit the association so a preloaded community sender is never
	// written back through a subscription save.
	return r.db.Omit("CommunitySender").Save(sub).Error
}

func (r *subscriptionRepository) FindByID(id string) (*subdomain.Subscription, error) {
	var sub subdomain.Subscription
	err := r.db.Preload("CommunitySender").Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByUserSenderAccount(userID, senderEmail, accountType string) (*subdomain.Subscription, error) {
	var sub subdomain.Subscription
	err := r.db.Where("user_id = ? AND sender_email = ? AND account_type = ?",
		userID, senderEmail, accountType).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByUserID(userID string) ([]*subdomain.Subscription, error) {
	var subs []*subdomain.Subscription
	err := r.db.Preload("CommunitySender").
		Where("user_id = ?", userID).
		Order("email_count_30days DESC, sender_email ASC").
		Find(&subs).Error
	return subs, err
}
