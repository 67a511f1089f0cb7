package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// ReportRepository user report data access
type ReportRepository interface {
	WithTx(tx *gorm.DB) ReportRepository
	Create(report *domain.Report) error
	FindByID(id string) (*domain.Report, error)
	ListByStatus(status string, page, limit int) ([]*domain.Report, int64, error)
	Save(report *domain.Report) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) WithTx(tx *gorm.DB) ReportRepository {
	return &reportRepository{db: tx}
}

func (r *reportRepository) Create(report *domain.Report) error {
	return r.db.Create(report).Error
}

func (r *reportRepository) FindByID(id string) (*domain.Report, error) {
	var report domain.Report
	err := r.db.Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListByStatus(status string, page, limit int) ([]*domain.Report, int64, error) {
	var reports []*domain.Report
	var total int64

	query := r.db.Model(&domain.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) Save(report *domain.Report) error {
	return r.db.Save(report).Error
}
