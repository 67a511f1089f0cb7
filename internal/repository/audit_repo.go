package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository append-only audit log data access. There are deliberately
// no update or delete methods.
type AuditRepository interface {
	Insert(entry *domain.AuditLogEntry) error
	InsertBatch(entries []*domain.AuditLogEntry) error
	List(actionType, targetType, targetID string, page, limit int) ([]*domain.AuditLogEntry, int64, error)
	ListByRelatedRequest(requestID string) ([]*domain.AuditLogEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(entry *domain.AuditLogEntry) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) InsertBatch(entries []*domain.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(entries).Error
}

func (r *auditRepository) List(actionType, targetType, targetID string, page, limit int) ([]*domain.AuditLogEntry, int64, error) {
	var entries []*domain.AuditLogEntry
	var total int64

	query := r.db.Model(&domain.AuditLogEntry{})
	if actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}
	if targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if targetID != "" {
		query = query.Where("target_id = ?", targetID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *auditRepository) ListByRelatedRequest(requestID string) ([]*domain.AuditLogEntry, error) {
	var entries []*domain.AuditLogEntry
	err := r.db.Where("related_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
