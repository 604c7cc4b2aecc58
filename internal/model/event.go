package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAppointmentBooked      EventType = "appointment.booked"
	EventTypeAppointmentRescheduled EventType = "appointment.rescheduled"
	EventTypeAppointmentCancelled   EventType = "appointment.cancelled"
	EventTypeAppointmentScheduled   EventType = "appointment.scheduled"
	EventTypePaymentCompleted       EventType = "payment.completed"
	EventTypePaymentCancelled       EventType = "payment.cancelled"
	EventTypePaymentFailed          EventType = "payment.failed"
	EventTypeAvailabilityAdded      EventType = "availability.added"
	EventTypeAvailabilityDeleted    EventType = "availability.deleted"
)

// events — события аудита, пишутся в той же транзакции, что и изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	UserID        *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`
	PaymentID     *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
