package repository

import (
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// correctionRepository implements CorrectionRepository using GORM
type correctionRepository struct {
	db *gorm.DB
}

// NewCorrectionRepository creates a new instance of correctionRepository
func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) Create(correction *subdomain.UserCorrection) error {
	if correction.ID == "" {
		correction.ID = uuid.New().String()
	}
	correction.CreatedAt = time.Now()
	return r.db.Create(correction).Error
}

func (r *correctionRepository) CountBySender(communitySenderID string) (int64, error) {
	var count int64
	err := r.db.Model(&subdomain.UserCorrection{}).
		Where("community_sender_id = ?", communitySenderID).
		Count(&count).Error
	return count, err
}

func (r *correctionRepository) CountByCategory(communitySenderID string) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.Model(&subdomain.UserCorrection{}).
		Select("corrected_category AS category, COUNT(*) AS count").
		Where("community_sender_id = ?", communitySenderID).
		Group("corrected_category").
		Order("count DESC, corrected_category ASC").
		Scan(&counts).Error
	return counts, err
}
