package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// doctor_availabilities — окна приёма, которые публикует врач.
type DoctorAvailability struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_window,priority:1"`

	// Чистая дата без времени и время без таймзоны.
	Date      datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_availability_window,priority:2"`
	StartTime datatypes.Time `gorm:"not null;uniqueIndex:idx_availability_window,priority:3"`
	EndTime   datatypes.Time `gorm:"not null;uniqueIndex:idx_availability_window,priority:4"`

	ConsultationType string `gorm:"type:varchar(32);not null;uniqueIndex:idx_availability_window,priority:5"`
	IsAvailable      bool   `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (a *DoctorAvailability) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
