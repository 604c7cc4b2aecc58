package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// hospitals
type Hospital struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (h *Hospital) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
