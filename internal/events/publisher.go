package events

import (
	"context"
	"time"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// Message — событие в том виде, в каком оно уходит в брокер.
type Message struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	UserID        string    `json:"user_id,omitempty"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	PaymentID     string    `json:"payment_id,omitempty"`
	Details       string    `json:"details,omitempty"`
}

func NewMessage(e model.Event) Message {
	m := Message{
		ID:         e.ID.String(),
		Type:       string(e.EventType),
		OccurredAt: e.CreatedAt,
		Details:    e.Details,
	}
	if e.UserID != nil {
		m.UserID = e.UserID.String()
	}
	if e.AppointmentID != nil {
		m.AppointmentID = e.AppointmentID.String()
	}
	if e.PaymentID != nil {
		m.PaymentID = e.PaymentID.String()
	}
	return m
}

// Publisher отправляет уже закоммиченные события наружу.
type Publisher interface {
	Publish(ctx context.Context, e model.Event) error
	Close() error
}

// NopPublisher — когда брокер выключен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.Event) error { return nil }

func (NopPublisher) Close() error { return nil }
