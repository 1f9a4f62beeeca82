package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// Admin is a staff account allowed to manage content and review payments.
type Admin struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email       string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	Password    string     `gorm:"type:text" json:"-" validate:"required"`
	Status      string     `gorm:"type:varchar(20);default:'active'" json:"status" validate:"oneof=active disabled"`
	LastLoginAt *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Admin) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// IsActive reports whether the admin account may log in.
func (a *Admin) IsActive() bool {
	return a.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the stored hash.
func (a *Admin) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.Password)
}
