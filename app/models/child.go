package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Child is a beneficiary who can be sponsored.
type Child struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Age         int       `gorm:"default:0" json:"age" validate:"gte=0,lte=25"`
	Bio         string    `gorm:"type:text" json:"bio,omitempty" validate:"max=2000"`
	PhotoURL    string    `gorm:"type:varchar(255);default:''" json:"photo_url,omitempty" validate:"omitempty,url,max=255"`
	IsSponsored bool      `gorm:"default:false;index" json:"is_sponsored"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ch *Child) Validate() error {
	v := validator.New()

	return v.Struct(ch)
}
