package repository

import (
	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

type childRepository struct {
	db *gorm.DB
}

// NewChildRepository creates a new child repository instance
func NewChildRepository(db *gorm.DB) ChildRepository {
	return &childRepository{db: db}
}

func (r *childRepository) Create(child *models.Child) error {
	return r.db.Create(child).Error
}

func (r *childRepository) GetByID(id uint) (*models.Child, error) {
	var child models.Child
	if err := r.db.First(&child, id).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

// ListAvailable returns children without an active sponsor
func (r *childRepository) ListAvailable(offset, limit int) ([]models.Child, error) {
	var children []models.Child
	err := r.db.Where("is_sponsored = ?", false).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&children).Error
	return children, err
}

func (r *childRepository) List(offset, limit int) ([]models.Child, error) {
	var children []models.Child
	err := r.db.Order("id ASC").Offset(offset).Limit(limit).Find(&children).Error
	return children, err
}
