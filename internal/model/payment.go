package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Из терминальных статусов платёж уже не выходит.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled || s == PaymentStatusFailed
}

// Способ оплаты до того, как пациент выбрал его на странице счёта.
const PaymentMethodNotSelected = "NO_SELECTED"

// payments — ровно один платёж на запись.
type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(64);not null"`
	TransactionID string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status        PaymentStatus   `gorm:"type:varchar(32);not null;index"`

	// Данные счёта во внешнем шлюзе; пусто, пока шлюз не ответил.
	InvoiceID     *string `gorm:"type:varchar(128);uniqueIndex"`
	InvoiceStatus string  `gorm:"type:varchar(32)"`
	PaymentURL    string  `gorm:"type:text"`

	PaidAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Appointment *Appointment `gorm:"foreignKey:AppointmentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// payment_notifications — уже применённые уведомления шлюза.
type PaymentNotification struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DedupKey  string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	InvoiceID string    `gorm:"type:varchar(128);not null;index"`
	Status    string    `gorm:"type:varchar(32);not null"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null;index"`

	ReceivedAt time.Time `gorm:"not null"`
}

func (n *PaymentNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
