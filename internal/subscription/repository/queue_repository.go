package repository

import (
	"errors"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// queueRepository implements QueueRepository using GORM
type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new instance of queueRepository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

// EnqueueIfAbsent runs the existence checks and the insert in one
// transaction so two concurrent scan passes cannot both queue the same
// domain. A done item also blocks re-enqueue: once classified, the
// community entry answers future scans.
func (r *queueRepository) EnqueueIfAbsent(item *subdomain.CategorizationQueueItem) (bool, error) {
	queued := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&subdomain.CommunitySender{}).
			Where("domain = ?", item.Domain).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Model(&subdomain.CategorizationQueueItem{}).
			Where("domain = ? AND status IN ?", item.Domain,
				[]subdomain.QueueStatus{subdomain.QueuePending, subdomain.QueueProcessing, subdomain.QueueDone}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.Status == "" {
			item.Status = subdomain.QueuePending
		}
		if item.MaxAttempts == 0 {
			item.MaxAttempts = subdomain.DefaultMaxAttempts
		}
		item.CreatedAt = time.Now()
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		queued = true
		return nil
	})
	return queued, err
}

func (r *queueRepository) NextPending() (*subdomain.CategorizationQueueItem, error) {
	var item subdomain.CategorizationQueueItem
	err := r.db.Where("status = ? AND attempts < max_attempts", subdomain.QueuePending).
		Order("priority ASC, created_at ASC").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) Update(item *subdomain.CategorizationQueueItem) error {
	return r.db.Save(item).Error
}
