package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Doctor — врач, привязан к учётной записи пользователя и к больнице.
type Doctor struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	HospitalID uuid.UUID `gorm:"type:uuid;not null;index"`

	FullName string `gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Hospital *Hospital `gorm:"foreignKey:HospitalID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (d *Doctor) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DoctorSpecialization — специализация врача с базовой почасовой ставкой.
type DoctorSpecialization struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name    string          `gorm:"type:varchar(255);not null"`
	BaseFee decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *DoctorSpecialization) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
