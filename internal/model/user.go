package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// users — пациенты и учётные записи врачей.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FullName string `gorm:"type:varchar(255);not null"`
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone    string `gorm:"type:varchar(32)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
