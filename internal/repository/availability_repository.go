package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type AvailabilityRepository interface {
	// Есть ли у врача открытое окно, целиком накрывающее [start, end].
	IsDoctorAvailable(
		ctx context.Context,
		doctorID uuid.UUID,
		date datatypes.Date,
		start, end datatypes.Time,
		consultationType string,
	) (bool, error)
	// Точное совпадение врача, даты, границ и вида консультации.
	ExistsDuplicate(ctx context.Context, a *model.DoctorAvailability) (bool, error)
	Create(ctx context.Context, a *model.DoctorAvailability) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DoctorAvailability, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Окна врача начиная с даты from, по возрастанию.
	ListByDoctorFrom(ctx context.Context, doctorID uuid.UUID, from datatypes.Date) ([]model.DoctorAvailability, error)
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) IsDoctorAvailable(
	ctx context.Context,
	doctorID uuid.UUID,
	date datatypes.Date,
	start, end datatypes.Time,
	consultationType string,
) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&model.DoctorAvailability{}).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Where("start_time <= ? AND end_time >= ?", start, end).
		Where("LOWER(consultation_type) = LOWER(?)", consultationType).
		Where("is_available = ?", true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAvailabilityRepository) ExistsDuplicate(ctx context.Context, a *model.DoctorAvailability) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&model.DoctorAvailability{}).
		Where("doctor_id = ? AND date = ?", a.DoctorID, a.Date).
		Where("start_time = ? AND end_time = ?", a.StartTime, a.EndTime).
		Where("consultation_type = ?", a.ConsultationType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAvailabilityRepository) Create(ctx context.Context, a *model.DoctorAvailability) error {
	return conn(ctx, r.db).Create(a).Error
}

func (r *GormAvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DoctorAvailability, error) {
	var a model.DoctorAvailability
	if err := conn(ctx, r.db).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&model.DoctorAvailability{}, "id = ?", id).Error
}

func (r *GormAvailabilityRepository) ListByDoctorFrom(
	ctx context.Context,
	doctorID uuid.UUID,
	from datatypes.Date,
) ([]model.DoctorAvailability, error) {
	var items []model.DoctorAvailability
	err := conn(ctx, r.db).
		Where("doctor_id = ? AND date >= ?", doctorID, from).
		Order("date ASC").
		Order("start_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
