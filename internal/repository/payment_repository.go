package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error)
	GetByAppointmentIDForUpdate(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error)
	ListByAppointmentIDs(ctx context.Context, appointmentIDs []uuid.UUID) ([]model.Payment, error)
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return conn(ctx, r.db).Create(p).Error
}

func (r *GormPaymentRepository) Update(ctx context.Context, p *model.Payment) error {
	return conn(ctx, r.db).
		Model(p).
		Select(
			"amount", "payment_method", "status",
			"invoice_id", "invoice_status", "payment_url",
			"paid_at", "updated_at",
		).
		Updates(p).Error
}

func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := forUpdate(conn(ctx, r.db)).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := conn(ctx, r.db).First(&p, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByAppointmentIDForUpdate(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := forUpdate(conn(ctx, r.db)).First(&p, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error) {
	var p model.Payment
	if err := conn(ctx, r.db).First(&p, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) ListByAppointmentIDs(ctx context.Context, appointmentIDs []uuid.UUID) ([]model.Payment, error) {
	if len(appointmentIDs) == 0 {
		return nil, nil
	}
	var items []model.Payment
	if err := conn(ctx, r.db).Where("appointment_id IN ?", appointmentIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
