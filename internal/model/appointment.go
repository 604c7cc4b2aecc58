package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// BlockingAppointmentStatuses — статусы, которые занимают окно врача.
// PENDING тоже держит окно, пока счёт не оплачен или не истёк.
var BlockingAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusScheduled,
}

// appointments
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PatientID              uuid.UUID `gorm:"type:uuid;not null;index"`
	DoctorID               uuid.UUID `gorm:"type:uuid;not null;index:idx_appointment_doctor_day,priority:1"`
	HospitalID             uuid.UUID `gorm:"type:uuid;not null"`
	DoctorSpecializationID uuid.UUID `gorm:"type:uuid;not null"`

	AppointmentDate datatypes.Date `gorm:"type:date;not null;index:idx_appointment_doctor_day,priority:2"`
	StartTime       datatypes.Time `gorm:"not null"`
	EndTime         datatypes.Time `gorm:"not null"`

	ConsultationType string            `gorm:"type:varchar(32);not null;index:idx_appointment_doctor_day,priority:3"`
	Status           AppointmentStatus `gorm:"type:varchar(32);not null;index"`

	CancelledAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Patient  *User     `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Doctor   *Doctor   `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Hospital *Hospital `gorm:"foreignKey:HospitalID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Duration считает длительность приёма по настенным часам.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.EndTime) - time.Duration(a.StartTime)
}
