package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// OverlapQuery — окно, для которого ищутся пересекающиеся записи врача.
type OverlapQuery struct {
	DoctorID         uuid.UUID
	Date             datatypes.Date
	Start            datatypes.Time
	End              datatypes.Time
	ConsultationType string
	// Запись, которую переносят, сама себе не мешает.
	ExcludeID *uuid.UUID
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	Update(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Чтение с эксклюзивной блокировкой строки (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Пересекающиеся записи в указанных статусах, строки блокируются.
	FindOverlapping(ctx context.Context, q OverlapQuery, statuses []model.AppointmentStatus) ([]model.Appointment, error)
	// Записи пациента: сначала поздние даты.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]model.Appointment, int64, error)
	// Записи врача на день по времени начала.
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date datatypes.Date) ([]model.Appointment, error)
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	return conn(ctx, r.db).Create(a).Error
}

func (r *GormAppointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	return conn(ctx, r.db).
		Model(a).
		Select("appointment_date", "start_time", "end_time", "status", "cancelled_at", "updated_at").
		Updates(a).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := conn(ctx, r.db).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := forUpdate(conn(ctx, r.db)).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) FindOverlapping(
	ctx context.Context,
	q OverlapQuery,
	statuses []model.AppointmentStatus,
) ([]model.Appointment, error) {
	query := conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ?", q.DoctorID, q.Date).
		Where("consultation_type = ?", q.ConsultationType).
		Where("status IN ?", statuses).
		Where(
			"(start_time < ? AND end_time > ?) OR (start_time = ? AND end_time = ?)",
			q.End, q.Start, q.Start, q.End,
		)

	if q.ExcludeID != nil {
		query = query.Where("id <> ?", *q.ExcludeID)
	}

	var items []model.Appointment
	if err := forUpdate(query).Order("start_time ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormAppointmentRepository) ListByPatient(
	ctx context.Context,
	patientID uuid.UUID,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		items []model.Appointment
		total int64
	)

	q := conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("patient_id = ?", patientID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("appointment_date DESC").Order("start_time DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *GormAppointmentRepository) ListByDoctorAndDate(
	ctx context.Context,
	doctorID uuid.UUID,
	date datatypes.Date,
) ([]model.Appointment, error) {
	var items []model.Appointment
	err := conn(ctx, r.db).
		Where("doctor_id = ? AND appointment_date = ?", doctorID, date).
		Order("start_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
