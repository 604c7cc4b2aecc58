package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

type BookAppointmentInput struct {
	DoctorID               uuid.UUID      `validate:"required"`
	DoctorSpecializationID uuid.UUID      `validate:"required"`
	Date                   datatypes.Date `validate:"required"`
	Start                  datatypes.Time
	End                    datatypes.Time
}

type RescheduleAppointmentInput struct {
	Date  datatypes.Date `validate:"required"`
	Start datatypes.Time
	End   datatypes.Time
}

// AppointmentDetails — запись вместе с платежом и именами участников.
type AppointmentDetails struct {
	Appointment  model.Appointment
	Payment      *model.Payment
	PatientName  string
	DoctorName   string
	HospitalName string
}

// BookingService — запись на приём, перенос и отмена.
//
// Все изменения идут в одной транзакции. Блокировки берутся в порядке
// врач, запись, платёж: строка врача сериализует конкурентные записи
// к нему, иначе две транзакции могли бы вставить пересекающиеся приёмы.
type BookingService struct {
	tx           *db.Transactor
	users        repository.UserRepository
	doctors      repository.DoctorRepository
	hospitals    repository.HospitalRepository
	fees         repository.FeeRepository
	availability repository.AvailabilityRepository
	appointments repository.AppointmentRepository
	payments     repository.PaymentRepository

	feeResolver FeeResolver
	paymentSvc  *PaymentService
	audit       *AuditLog
	log         *zap.Logger

	now func() time.Time
	loc *time.Location
}

func NewBookingService(
	tx *db.Transactor,
	repos repository.Repositories,
	feeResolver FeeResolver,
	paymentSvc *PaymentService,
	audit *AuditLog,
	log *zap.Logger,
	loc *time.Location,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		tx:           tx,
		users:        repos.Users,
		doctors:      repos.Doctors,
		hospitals:    repos.Hospitals,
		fees:         repos.Fees,
		availability: repos.Availability,
		appointments: repos.Appointments,
		payments:     repos.Payments,
		feeResolver:  feeResolver,
		paymentSvc:   paymentSvc,
		audit:        audit,
		log:          log,
		now:          time.Now,
		loc:          loc,
	}
}

// BookAppointment создаёт PENDING-запись и платёж со счётом в шлюзе.
func (s *BookingService) BookAppointment(
	ctx context.Context,
	patientID uuid.UUID,
	in BookAppointmentInput,
) (*AppointmentDetails, error) {
	s.log.Info("BookingService.BookAppointment called",
		zap.String("patient_id", patientID.String()),
		zap.String("doctor_id", in.DoctorID.String()),
		zap.String("date", calendar.FormatDate(in.Date)),
		zap.String("start", in.Start.String()),
		zap.String("end", in.End.String()),
	)

	if err := validateInput(in); err != nil {
		return nil, err
	}
	window, err := validateWindow(calendar.NewWindow(in.Start, in.End))
	if err != nil {
		return nil, err
	}

	ctx, batch := s.audit.begin(ctx)
	var details *AppointmentDetails
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		patient, err := s.users.GetByID(ctx, patientID)
		if err != nil {
			return lookupErr(err, "patient")
		}
		doctor, err := s.doctors.GetByIDForUpdate(ctx, in.DoctorID)
		if err != nil {
			return lookupErr(err, "doctor")
		}
		hospital, err := s.hospitals.GetByID(ctx, doctor.HospitalID)
		if err != nil {
			return lookupErr(err, "hospital")
		}
		spec, err := s.fees.GetSpecialization(ctx, in.DoctorSpecializationID)
		if err != nil {
			return lookupErr(err, "doctor specialization")
		}
		fee, err := s.feeResolver.ResolveFee(ctx, hospital.ID, spec.ID)
		if err != nil {
			return err
		}

		consultationType := normalizeConsultationType(fee.ConsultationType)
		if err := s.ensureBookable(ctx, doctor.ID, in.Date, window, consultationType, nil); err != nil {
			return err
		}

		appt := &model.Appointment{
			PatientID:              patient.ID,
			DoctorID:               doctor.ID,
			HospitalID:             hospital.ID,
			DoctorSpecializationID: spec.ID,
			AppointmentDate:        in.Date,
			StartTime:              window.Start,
			EndTime:                window.End,
			ConsultationType:       consultationType,
			Status:                 model.AppointmentStatusPending,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return storeErr(err, "appointment")
		}

		payment, err := s.paymentSvc.CreatePayment(ctx, appt)
		if err != nil {
			return err
		}

		if err := s.audit.record(ctx, model.EventTypeAppointmentBooked, eventRefs{
			user:        ref(patient.ID),
			appointment: ref(appt.ID),
			payment:     ref(payment.ID),
		}, map[string]any{
			"date":   calendar.FormatDate(appt.AppointmentDate),
			"start":  appt.StartTime.String(),
			"end":    appt.EndTime.String(),
			"amount": payment.Amount.StringFixed(2),
		}); err != nil {
			return err
		}

		details = &AppointmentDetails{
			Appointment:  *appt,
			Payment:      payment,
			PatientName:  patient.FullName,
			DoctorName:   doctor.FullName,
			HospitalName: hospital.Name,
		}
		return nil
	})
	if err != nil {
		logFailure(s.log, "BookingService.BookAppointment", err,
			zap.String("patient_id", patientID.String()),
			zap.String("doctor_id", in.DoctorID.String()),
		)
		return nil, err
	}

	s.audit.flush(ctx, batch)
	s.log.Info("appointment booked",
		zap.String("appointment_id", details.Appointment.ID.String()),
		zap.String("payment_id", details.Payment.ID.String()),
	)
	return details, nil
}

// RescheduleAppointment переносит запись пациента на новое окно и пересчитывает платёж.
func (s *BookingService) RescheduleAppointment(
	ctx context.Context,
	patientID, appointmentID uuid.UUID,
	in RescheduleAppointmentInput,
) (*AppointmentDetails, error) {
	s.log.Info("BookingService.RescheduleAppointment called",
		zap.String("patient_id", patientID.String()),
		zap.String("appointment_id", appointmentID.String()),
		zap.String("date", calendar.FormatDate(in.Date)),
		zap.String("start", in.Start.String()),
		zap.String("end", in.End.String()),
	)

	if err := validateInput(in); err != nil {
		return nil, err
	}
	window, err := validateWindow(calendar.NewWindow(in.Start, in.End))
	if err != nil {
		return nil, err
	}

	ctx, batch := s.audit.begin(ctx)
	var details *AppointmentDetails
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Врача узнаём без блокировки, чтобы взять блокировки в общем порядке.
		current, err := s.appointments.GetByID(ctx, appointmentID)
		if err != nil {
			return lookupErr(err, "appointment")
		}
		if current.PatientID != patientID {
			return apperror.Forbidden("appointment does not belong to the caller")
		}

		if _, err := s.doctors.GetByIDForUpdate(ctx, current.DoctorID); err != nil {
			return lookupErr(err, "doctor")
		}
		appt, err := s.appointments.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return lookupErr(err, "appointment")
		}

		if appt.Status == model.AppointmentStatusCancelled {
			return apperror.BusinessRule("cannot reschedule a cancelled appointment")
		}
		if calendar.DateBefore(in.Date, calendar.Today(s.now(), s.loc)) {
			return apperror.BusinessRule("cannot reschedule to a past date")
		}

		if err := s.ensureBookable(ctx, appt.DoctorID, in.Date, window, appt.ConsultationType, &appt.ID); err != nil {
			return err
		}

		previous := map[string]any{
			"from_date":  calendar.FormatDate(appt.AppointmentDate),
			"from_start": appt.StartTime.String(),
			"from_end":   appt.EndTime.String(),
		}

		appt.AppointmentDate = in.Date
		appt.StartTime = window.Start
		appt.EndTime = window.End
		if err := s.appointments.Update(ctx, appt); err != nil {
			return storeErr(err, "appointment")
		}

		payment, err := s.paymentSvc.RecalculatePayment(ctx, appt)
		if err != nil {
			return err
		}

		previous["to_date"] = calendar.FormatDate(appt.AppointmentDate)
		previous["to_start"] = appt.StartTime.String()
		previous["to_end"] = appt.EndTime.String()
		previous["amount"] = payment.Amount.StringFixed(2)
		if err := s.audit.record(ctx, model.EventTypeAppointmentRescheduled, eventRefs{
			user:        ref(patientID),
			appointment: ref(appt.ID),
			payment:     ref(payment.ID),
		}, previous); err != nil {
			return err
		}

		details, err = newDetailsBuilder(s).build(ctx, *appt, payment)
		return err
	})
	if err != nil {
		logFailure(s.log, "BookingService.RescheduleAppointment", err,
			zap.String("appointment_id", appointmentID.String()),
		)
		return nil, err
	}

	s.audit.flush(ctx, batch)
	return details, nil
}

// CancelAppointment отменяет PENDING-запись вместе с платежом: либо оба, либо ничего.
func (s *BookingService) CancelAppointment(
	ctx context.Context,
	patientID, appointmentID uuid.UUID,
) (*AppointmentDetails, error) {
	s.log.Info("BookingService.CancelAppointment called",
		zap.String("patient_id", patientID.String()),
		zap.String("appointment_id", appointmentID.String()),
	)

	ctx, batch := s.audit.begin(ctx)
	var details *AppointmentDetails
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return lookupErr(err, "appointment")
		}
		if appt.PatientID != patientID {
			return apperror.Forbidden("appointment does not belong to the caller")
		}
		if appt.Status != model.AppointmentStatusPending {
			return apperror.BusinessRule("only PENDING appointments can be cancelled, current status is %s", appt.Status)
		}

		now := s.now().UTC()
		appt.Status = model.AppointmentStatusCancelled
		appt.CancelledAt = &now
		if err := s.appointments.Update(ctx, appt); err != nil {
			return storeErr(err, "appointment")
		}

		payment, err := s.paymentSvc.CancelPaymentForAppointment(ctx, appt.ID)
		if err != nil {
			return err
		}

		if err := s.audit.record(ctx, model.EventTypeAppointmentCancelled, eventRefs{
			user:        ref(patientID),
			appointment: ref(appt.ID),
			payment:     ref(payment.ID),
		}, map[string]any{"reason": "cancelled by patient"}); err != nil {
			return err
		}

		details, err = newDetailsBuilder(s).build(ctx, *appt, payment)
		return err
	})
	if err != nil {
		logFailure(s.log, "BookingService.CancelAppointment", err,
			zap.String("appointment_id", appointmentID.String()),
		)
		return nil, err
	}

	s.audit.flush(ctx, batch)
	return details, nil
}

// FindByID отдаёт запись пациенту или врачу, к которому она сделана.
func (s *BookingService) FindByID(ctx context.Context, callerID, appointmentID uuid.UUID) (*AppointmentDetails, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, lookupErr(err, "appointment")
	}

	if appt.PatientID != callerID {
		doctor, err := s.doctors.GetByUserID(ctx, callerID)
		if err != nil || doctor.ID != appt.DoctorID {
			return nil, apperror.Forbidden("appointment is not visible to the caller")
		}
	}

	payment, err := s.payments.GetByAppointmentID(ctx, appt.ID)
	if err != nil {
		return nil, paymentLookupErr(err, appt.ID)
	}
	return newDetailsBuilder(s).build(ctx, *appt, payment)
}

// ListUserAppointments — записи пациента постранично, сначала поздние.
func (s *BookingService) ListUserAppointments(
	ctx context.Context,
	patientID uuid.UUID,
	page, pageSize int,
) (calendar.Page[AppointmentDetails], error) {
	page, pageSize = calendar.NormalizePage(page, pageSize)

	items, total, err := s.appointments.ListByPatient(ctx, patientID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[AppointmentDetails]{}, apperror.Internal(err, "list appointments")
	}

	out, err := s.buildAll(ctx, items)
	if err != nil {
		return calendar.Page[AppointmentDetails]{}, err
	}
	return calendar.NewPage(out, page, pageSize, total), nil
}

// ListDoctorAppointments возвращает приёмы врача-пользователя на дату.
func (s *BookingService) ListDoctorAppointments(
	ctx context.Context,
	doctorUserID uuid.UUID,
	date datatypes.Date,
) ([]AppointmentDetails, error) {
	doctor, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, lookupErr(err, "doctor")
	}

	items, err := s.appointments.ListByDoctorAndDate(ctx, doctor.ID, date)
	if err != nil {
		return nil, apperror.Internal(err, "list appointments")
	}
	return s.buildAll(ctx, items)
}

func (s *BookingService) buildAll(ctx context.Context, items []model.Appointment) ([]AppointmentDetails, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	payments, err := s.payments.ListByAppointmentIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err, "list payments")
	}
	byAppointment := make(map[uuid.UUID]*model.Payment, len(payments))
	for i := range payments {
		byAppointment[payments[i].AppointmentID] = &payments[i]
	}

	b := newDetailsBuilder(s)
	out := make([]AppointmentDetails, 0, len(items))
	for _, a := range items {
		payment, ok := byAppointment[a.ID]
		if !ok {
			return nil, paymentLookupErr(nil, a.ID)
		}
		d, err := b.build(ctx, a, payment)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// ensureBookable проверяет, что окно открыто у врача и не пересекается с живыми записями.
func (s *BookingService) ensureBookable(
	ctx context.Context,
	doctorID uuid.UUID,
	date datatypes.Date,
	window calendar.Window,
	consultationType string,
	excludeID *uuid.UUID,
) error {
	available, err := s.availability.IsDoctorAvailable(ctx, doctorID, date, window.Start, window.End, consultationType)
	if err != nil {
		return apperror.Internal(err, "check doctor availability")
	}
	if !available {
		return apperror.Conflict("doctor is not available on %s from %s to %s",
			calendar.FormatDate(date), window.Start.String(), window.End.String())
	}

	overlapping, err := s.appointments.FindOverlapping(ctx, repository.OverlapQuery{
		DoctorID:         doctorID,
		Date:             date,
		Start:            window.Start,
		End:              window.End,
		ConsultationType: consultationType,
		ExcludeID:        excludeID,
	}, model.BlockingAppointmentStatuses)
	if err != nil {
		return apperror.Internal(err, "check overlapping appointments")
	}
	if len(overlapping) > 0 {
		return apperror.Conflict("doctor already has an appointment at this time")
	}
	return nil
}

// detailsBuilder подставляет имена, запоминая уже прочитанные.
type detailsBuilder struct {
	svc       *BookingService
	users     map[uuid.UUID]string
	doctors   map[uuid.UUID]string
	hospitals map[uuid.UUID]string
}

func newDetailsBuilder(s *BookingService) *detailsBuilder {
	return &detailsBuilder{
		svc:       s,
		users:     make(map[uuid.UUID]string),
		doctors:   make(map[uuid.UUID]string),
		hospitals: make(map[uuid.UUID]string),
	}
}

func (b *detailsBuilder) build(ctx context.Context, a model.Appointment, p *model.Payment) (*AppointmentDetails, error) {
	patientName, ok := b.users[a.PatientID]
	if !ok {
		u, err := b.svc.users.GetByID(ctx, a.PatientID)
		if err != nil {
			return nil, lookupErr(err, "patient")
		}
		patientName = u.FullName
		b.users[a.PatientID] = patientName
	}

	doctorName, ok := b.doctors[a.DoctorID]
	if !ok {
		d, err := b.svc.doctors.GetByID(ctx, a.DoctorID)
		if err != nil {
			return nil, lookupErr(err, "doctor")
		}
		doctorName = d.FullName
		b.doctors[a.DoctorID] = doctorName
	}

	hospitalName, ok := b.hospitals[a.HospitalID]
	if !ok {
		h, err := b.svc.hospitals.GetByID(ctx, a.HospitalID)
		if err != nil {
			return nil, lookupErr(err, "hospital")
		}
		hospitalName = h.Name
		b.hospitals[a.HospitalID] = hospitalName
	}

	return &AppointmentDetails{
		Appointment:  a,
		Payment:      p,
		PatientName:  patientName,
		DoctorName:   doctorName,
		HospitalName: hospitalName,
	}, nil
}
