package repository

import (
	"github.com/linlihub/linli-backend/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository member profile data access
type ProfileRepository interface {
	FindByUserID(userID string) (*domain.Profile, error)
	FindByLineUserID(lineUserID string) (*domain.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUserID(userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByLineUserID(lineUserID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.Where("line_user_id = ?", lineUserID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
