package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// DecryptionRepository decryption request data access
type DecryptionRepository interface {
	WithTx(tx *gorm.DB) DecryptionRepository
	Create(req *domain.DecryptionRequest) error
	FindByID(id string) (*domain.DecryptionRequest, error)
	ListByStatus(status string, page, limit int) ([]*domain.DecryptionRequest, int64, error)
	Save(req *domain.DecryptionRequest) error
}

type decryptionRepository struct {
	db *gorm.DB
}

// NewDecryptionRepository creates a new DecryptionRepository
func NewDecryptionRepository(db *gorm.DB) DecryptionRepository {
	return &decryptionRepository{db: db}
}

func (r *decryptionRepository) WithTx(tx *gorm.DB) DecryptionRepository {
	return &decryptionRepository{db: tx}
}

func (r *decryptionRepository) Create(req *domain.DecryptionRequest) error {
	return r.db.Create(req).Error
}

func (r *decryptionRepository) FindByID(id string) (*domain.DecryptionRequest, error) {
	var req domain.DecryptionRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *decryptionRepository) ListByStatus(status string, page, limit int) ([]*domain.DecryptionRequest, int64, error) {
	var reqs []*domain.DecryptionRequest
	var total int64

	query := r.db.Model(&domain.DecryptionRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *decryptionRepository) Save(req *domain.DecryptionRequest) error {
	return r.db.Save(req).Error
}
