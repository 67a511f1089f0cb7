package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// PostRepository community post data access
type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository
	Create(post *domain.Post) error
	FindByID(id string) (*domain.Post, error)
	ListByStatus(status, category string, page, limit int) ([]*domain.Post, int64, error)
	Save(post *domain.Post) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

func (r *postRepository) Create(post *domain.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) FindByID(id string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByStatus(status, category string, page, limit int) ([]*domain.Post, int64, error) {
	var posts []*domain.Post
	var total int64

	query := r.db.Model(&domain.Post{}).Where("status = ?", status)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) Save(post *domain.Post) error {
	return r.db.Save(post).Error
}
