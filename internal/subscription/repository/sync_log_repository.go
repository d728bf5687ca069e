package repository

import (
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// syncLogRepository implements SyncLogRepository using GORM
type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository creates a new instance of syncLogRepository
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Create(log *subdomain.SyncLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.StartedAt = time.Now()
	return r.db.Create(log).Error
}

func (r *syncLogRepository) Update(log *subdomain.SyncLog) error {
	return r.db.Save(log).Error
}

func (r *syncLogRepository) FindByUserID(userID string, limit int) ([]*subdomain.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []*subdomain.SyncLog
	err := r.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
