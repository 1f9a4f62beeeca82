package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/CareFund/app/models"
	"gorm.io/gorm"
)

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new admin repository instance
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

func (r *adminRepository) GetByEmail(email string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) TouchLastLogin(id uint) error {
	return r.db.Model(&models.Admin{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
}

func (r *adminRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Admin{}).Count(&n).Error
	return n, err
}
