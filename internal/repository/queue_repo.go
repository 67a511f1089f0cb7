package repository

import (
	"time"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// QueueRepository moderation queue data access
type QueueRepository interface {
	WithTx(tx *gorm.DB) QueueRepository
	Create(item *domain.ModerationQueueItem) error
	FindByID(id string) (*domain.ModerationQueueItem, error)
	ListOpen(priority string, page, limit int) ([]*domain.ModerationQueueItem, int64, error)
	MarkResolved(id, resolution string, resolvedAt time.Time) error
	Summary() (*domain.QueueSummary, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) WithTx(tx *gorm.DB) QueueRepository {
	return &queueRepository{db: tx}
}

func (r *queueRepository) Create(item *domain.ModerationQueueItem) error {
	return r.db.Create(item).Error
}

func (r *queueRepository) FindByID(id string) (*domain.ModerationQueueItem, error) {
	var item domain.ModerationQueueItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) ListOpen(priority string, page, limit int) ([]*domain.ModerationQueueItem, int64, error) {
	var items []*domain.ModerationQueueItem
	var total int64

	query := r.db.Model(&domain.ModerationQueueItem{}).Where("status = ?", domain.QueueStatusOpen)
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("due_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// MarkResolved flips an open item to resolved. The status guard in the WHERE
// clause makes resolution single-shot: a second call affects zero rows.
func (r *queueRepository) MarkResolved(id, resolution string, resolvedAt time.Time) error {
	res := r.db.Model(&domain.ModerationQueueItem{}).
		Where("id = ? AND status = ?", id, domain.QueueStatusOpen).
		Updates(map[string]interface{}{
			"status":      domain.QueueStatusResolved,
			"resolution":  resolution,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrAlreadyResolved
	}
	return nil
}

func (r *queueRepository) Summary() (*domain.QueueSummary, error) {
	summary := &domain.QueueSummary{}

	base := r.db.Model(&domain.ModerationQueueItem{}).Where("status = ?", domain.QueueStatusOpen)
	if err := base.Count(&summary.Open).Error; err != nil {
		return nil, err
	}

	counts := []struct {
		priority string
		dest     *int64
	}{
		{domain.QueuePriorityUrgent, &summary.Urgent},
		{domain.QueuePriorityHigh, &summary.High},
		{domain.QueuePriorityMedium, &summary.Medium},
	}
	for _, c := range counts {
		err := r.db.Model(&domain.ModerationQueueItem{}).
			Where("status = ? AND priority = ?", domain.QueueStatusOpen, c.priority).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}

	return summary, nil
}
