package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// CommentRepository post comment data access
type CommentRepository interface {
	WithTx(tx *gorm.DB) CommentRepository
	Create(comment *domain.Comment) error
	FindByID(id string) (*domain.Comment, error)
	ListByPost(postID string, page, limit int) ([]*domain.Comment, int64, error)
	CountByPost(postID string) (int64, error)
	Save(comment *domain.Comment) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(comment *domain.Comment) error {
	return r.db.Create(comment).Error
}

func (r *commentRepository) FindByID(id string) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(postID string, page, limit int) ([]*domain.Comment, int64, error) {
	var comments []*domain.Comment
	var total int64

	// Removed and shadow comments are filtered at the handler, not here:
	// the author still sees their own shadowed comments.
	query := r.db.Model(&domain.Comment{}).Where("post_id = ?", postID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) CountByPost(postID string) (int64, error) {
	var total int64
	err := r.db.Model(&domain.Comment{}).
		Where("post_id = ? AND status = ?", postID, domain.ContentStatusPublished).
		Count(&total).Error
	return total, err
}

func (r *commentRepository) Save(comment *domain.Comment) error {
	return r.db.Save(comment).Error
}
