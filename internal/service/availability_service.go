package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

type AddAvailabilityInput struct {
	Date             datatypes.Date `validate:"required"`
	Start            datatypes.Time
	End              datatypes.Time
	ConsultationType string `validate:"required,consultation_type"`
}

// AvailabilityService — окна приёма, которые врач открывает сам.
type AvailabilityService struct {
	tx           *db.Transactor
	doctors      repository.DoctorRepository
	availability repository.AvailabilityRepository
	audit        *AuditLog
	cache        cache.Cache // nil, если redis выключен
	cacheTTL     time.Duration
	log          *zap.Logger

	now func() time.Time
	loc *time.Location
}

func NewAvailabilityService(
	tx *db.Transactor,
	repos repository.Repositories,
	audit *AuditLog,
	c cache.Cache,
	cacheTTL time.Duration,
	log *zap.Logger,
	loc *time.Location,
) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		tx:           tx,
		doctors:      repos.Doctors,
		availability: repos.Availability,
		audit:        audit,
		cache:        c,
		cacheTTL:     cacheTTL,
		log:          log,
		now:          time.Now,
		loc:          loc,
	}
}

func availabilityCacheKey(doctorID uuid.UUID) string {
	return "availability:" + doctorID.String()
}

// AddAvailability открывает новое окно врача-пользователя.
func (s *AvailabilityService) AddAvailability(
	ctx context.Context,
	doctorUserID uuid.UUID,
	in AddAvailabilityInput,
) (*model.DoctorAvailability, error) {
	s.log.Info("AvailabilityService.AddAvailability called",
		zap.String("user_id", doctorUserID.String()),
		zap.String("date", calendar.FormatDate(in.Date)),
	)

	if err := validateInput(in); err != nil {
		return nil, err
	}
	window, err := validateWindow(calendar.NewWindow(in.Start, in.End))
	if err != nil {
		return nil, err
	}
	if calendar.DateBefore(in.Date, calendar.Today(s.now(), s.loc)) {
		return nil, apperror.BusinessRule("cannot add availability for a past date")
	}

	ctx, batch := s.audit.begin(ctx)
	var created *model.DoctorAvailability
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		doctor, err := s.doctorOf(ctx, doctorUserID)
		if err != nil {
			return err
		}

		a := &model.DoctorAvailability{
			DoctorID:         doctor.ID,
			Date:             in.Date,
			StartTime:        window.Start,
			EndTime:          window.End,
			ConsultationType: normalizeConsultationType(in.ConsultationType),
			IsAvailable:      true,
		}

		exists, err := s.availability.ExistsDuplicate(ctx, a)
		if err != nil {
			return apperror.Internal(err, "check availability duplicate")
		}
		if exists {
			return apperror.Conflict("doctor already has an availability scheduled at this time")
		}
		if err := s.availability.Create(ctx, a); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("doctor already has an availability scheduled at this time")
			}
			return storeErr(err, "availability")
		}

		if err := s.audit.record(ctx, model.EventTypeAvailabilityAdded, eventRefs{user: ref(doctorUserID)}, map[string]any{
			"availability_id":   a.ID.String(),
			"doctor_id":         doctor.ID.String(),
			"date":              calendar.FormatDate(a.Date),
			"start":             a.StartTime.String(),
			"end":               a.EndTime.String(),
			"consultation_type": a.ConsultationType,
		}); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		logFailure(s.log, "AvailabilityService.AddAvailability", err, zap.String("user_id", doctorUserID.String()))
		return nil, err
	}

	s.evict(ctx, created.DoctorID)
	s.audit.flush(ctx, batch)
	return created, nil
}

// DeleteAvailability удаляет окно; удалить можно только своё.
func (s *AvailabilityService) DeleteAvailability(ctx context.Context, doctorUserID, availabilityID uuid.UUID) error {
	s.log.Info("AvailabilityService.DeleteAvailability called",
		zap.String("user_id", doctorUserID.String()),
		zap.String("availability_id", availabilityID.String()),
	)

	ctx, batch := s.audit.begin(ctx)
	var doctorID uuid.UUID
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.availability.GetByID(ctx, availabilityID)
		if err != nil {
			return lookupErr(err, "availability")
		}
		doctor, err := s.doctorOf(ctx, doctorUserID)
		if err != nil {
			return err
		}
		if a.DoctorID != doctor.ID {
			return apperror.Forbidden("availability does not belong to the caller")
		}

		if err := s.availability.Delete(ctx, a.ID); err != nil {
			return apperror.Internal(err, "delete availability")
		}
		doctorID = doctor.ID
		return s.audit.record(ctx, model.EventTypeAvailabilityDeleted, eventRefs{user: ref(doctorUserID)}, map[string]any{
			"availability_id": a.ID.String(),
			"doctor_id":       doctor.ID.String(),
			"date":            calendar.FormatDate(a.Date),
		})
	})
	if err != nil {
		logFailure(s.log, "AvailabilityService.DeleteAvailability", err, zap.String("availability_id", availabilityID.String()))
		return err
	}

	s.evict(ctx, doctorID)
	s.audit.flush(ctx, batch)
	return nil
}

// ListAvailability возвращает окна врача начиная с сегодняшнего дня.
func (s *AvailabilityService) ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]model.DoctorAvailability, error) {
	today := calendar.Today(s.now(), s.loc)
	key := availabilityCacheKey(doctorID)

	if s.cache != nil {
		var cached []model.DoctorAvailability
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("availability cache get failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return dropPast(cached, today), nil
		}
	}

	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, lookupErr(err, "doctor")
	}
	items, err := s.availability.ListByDoctorFrom(ctx, doctorID, today)
	if err != nil {
		return nil, apperror.Internal(err, "list availability")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items, s.cacheTTL); err != nil {
			s.log.Warn("availability cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (s *AvailabilityService) doctorOf(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Forbidden("caller is not a doctor")
	}
	if err != nil {
		return nil, apperror.Internal(err, "load doctor")
	}
	return doctor, nil
}

func (s *AvailabilityService) evict(ctx context.Context, doctorID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, availabilityCacheKey(doctorID)); err != nil {
		s.log.Warn("availability cache evict failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
	}
}

// dropPast отбрасывает окна, дата которых уже прошла с момента кэширования.
func dropPast(items []model.DoctorAvailability, today datatypes.Date) []model.DoctorAvailability {
	out := items[:0]
	for _, a := range items {
		if !calendar.DateBefore(a.Date, today) {
			out = append(out, a)
		}
	}
	return out
}
