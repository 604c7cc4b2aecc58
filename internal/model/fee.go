package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Вид консультации.
const (
	ConsultationTypeOnline  = "ONLINE"
	ConsultationTypeOffline = "OFFLINE"
)

// hospital_doctor_fees — стоимость специализации в конкретной больнице.
type HospitalDoctorFee struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	HospitalID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fee_hospital_specialization"`
	DoctorSpecializationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fee_hospital_specialization"`

	Fee              decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ConsultationType string          `gorm:"type:varchar(32);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Hospital             *Hospital             `gorm:"foreignKey:HospitalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	DoctorSpecialization *DoctorSpecialization `gorm:"foreignKey:DoctorSpecializationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (f *HospitalDoctorFee) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
