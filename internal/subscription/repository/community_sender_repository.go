package repository

import (
	"errors"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// communitySenderRepository implements CommunitySenderRepository using GORM
type communitySenderRepository struct {
	db *gorm.DB
}

// NewCommunitySenderRepository creates a new instance of communitySenderRepository
func NewCommunitySenderRepository(db *gorm.DB) CommunitySenderRepository {
	return &communitySenderRepository{db: db}
}

func (r *communitySenderRepository) FindByID(id string) (*subdomain.CommunitySender, error) {
	var sender subdomain.CommunitySender
	err := r.db.Where("id = ?", id).First(&sender).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sender, nil
}

func (r *communitySenderRepository) FindByDomain(domain string) (*subdomain.CommunitySender, error) {
	var sender subdomain.CommunitySender
	err := r.db.Where("domain = ?", domain).First(&sender).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sender, nil
}

func (r *communitySenderRepository) ExistsByDomain(domain string) (bool, error) {
	var count int64
	err := r.db.Model(&subdomain.CommunitySender{}).Where("domain = ?", domain).Count(&count).Error
	return count > 0, err
}

// CreateIfAbsent inserts via ON CONFLICT DO NOTHING on the domain
// unique index, so concurrent worker ticks and consensus writes cannot
// produce two entries for one domain.
func (r *communitySenderRepository) CreateIfAbsent(sender *subdomain.CommunitySender) (bool, error) {
	if sender.ID == "" {
		sender.ID = uuid.New().String()
	}
	sender.CreatedAt = time.Now()
	sender.UpdatedAt = time.Now()

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoNothing: true,
	}).Create(sender)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *communitySenderRepository) Update(sender *subdomain.CommunitySender) error {
	sender.UpdatedAt = time.Now()
	return r.db.Save(sender).Error
}
