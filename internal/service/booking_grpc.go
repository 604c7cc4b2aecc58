package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"gorm.io/datatypes"

	bookingpb "github.com/Leganyst/clinic-booking/internal/api/booking/v1"
	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
)

// BookingServer — gRPC-обёртка над сервисами записи, платежей и окон приёма.
type BookingServer struct {
	bookingpb.UnimplementedBookingServiceServer

	booking      *BookingService
	payments     *PaymentService
	availability *AvailabilityService
}

func NewBookingServer(
	booking *BookingService,
	payments *PaymentService,
	availability *AvailabilityService,
) *BookingServer {
	return &BookingServer{
		booking:      booking,
		payments:     payments,
		availability: availability,
	}
}

func (s *BookingServer) BookAppointment(
	ctx context.Context,
	req *bookingpb.BookAppointmentRequest,
) (*bookingpb.BookAppointmentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	in := BookAppointmentInput{}
	if in.DoctorID, err = parseID("doctor_id", req.DoctorID); err != nil {
		return nil, toStatus(err)
	}
	if in.DoctorSpecializationID, err = parseID("doctor_specialization_id", req.DoctorSpecializationID); err != nil {
		return nil, toStatus(err)
	}
	if in.Date, err = parseDate(req.Date); err != nil {
		return nil, toStatus(err)
	}
	if in.Start, in.End, err = parseClockRange(req.StartTime, req.EndTime); err != nil {
		return nil, toStatus(err)
	}

	details, err := s.booking.BookAppointment(ctx, callerID, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.BookAppointmentResponse{Appointment: mapAppointment(details)}, nil
}

func (s *BookingServer) RescheduleAppointment(
	ctx context.Context,
	req *bookingpb.RescheduleAppointmentRequest,
) (*bookingpb.RescheduleAppointmentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointmentID, err := parseID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, toStatus(err)
	}
	in := RescheduleAppointmentInput{}
	if in.Date, err = parseDate(req.Date); err != nil {
		return nil, toStatus(err)
	}
	if in.Start, in.End, err = parseClockRange(req.StartTime, req.EndTime); err != nil {
		return nil, toStatus(err)
	}

	details, err := s.booking.RescheduleAppointment(ctx, callerID, appointmentID, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.RescheduleAppointmentResponse{Appointment: mapAppointment(details)}, nil
}

func (s *BookingServer) CancelAppointment(
	ctx context.Context,
	req *bookingpb.CancelAppointmentRequest,
) (*bookingpb.CancelAppointmentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	appointmentID, err := parseID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, toStatus(err)
	}

	details, err := s.booking.CancelAppointment(ctx, callerID, appointmentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.CancelAppointmentResponse{Appointment: mapAppointment(details)}, nil
}

func (s *BookingServer) GetAppointment(
	ctx context.Context,
	req *bookingpb.GetAppointmentRequest,
) (*bookingpb.GetAppointmentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	appointmentID, err := parseID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, toStatus(err)
	}

	details, err := s.booking.FindByID(ctx, callerID, appointmentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.GetAppointmentResponse{Appointment: mapAppointment(details)}, nil
}

func (s *BookingServer) ListUserAppointments(
	ctx context.Context,
	req *bookingpb.ListUserAppointmentsRequest,
) (*bookingpb.ListUserAppointmentsResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.booking.ListUserAppointments(ctx, callerID, int(req.Page), int(req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &bookingpb.ListUserAppointmentsResponse{
		Appointments: make([]*bookingpb.Appointment, 0, len(page.Items)),
		Page:         int32(page.Page),
		PageSize:     int32(page.PageSize),
		TotalCount:   page.Total,
		HasNext:      page.HasNext,
		HasPrev:      page.HasPrev,
	}
	for i := range page.Items {
		resp.Appointments = append(resp.Appointments, mapAppointment(&page.Items[i]))
	}
	return resp, nil
}

func (s *BookingServer) ListDoctorAppointments(
	ctx context.Context,
	req *bookingpb.ListDoctorAppointmentsRequest,
) (*bookingpb.ListDoctorAppointmentsResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, toStatus(err)
	}

	items, err := s.booking.ListDoctorAppointments(ctx, callerID, date)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &bookingpb.ListDoctorAppointmentsResponse{
		Appointments: make([]*bookingpb.Appointment, 0, len(items)),
	}
	for i := range items {
		resp.Appointments = append(resp.Appointments, mapAppointment(&items[i]))
	}
	return resp, nil
}

func (s *BookingServer) AddAvailability(
	ctx context.Context,
	req *bookingpb.AddAvailabilityRequest,
) (*bookingpb.AddAvailabilityResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	in := AddAvailabilityInput{ConsultationType: req.ConsultationType}
	if in.Date, err = parseDate(req.Date); err != nil {
		return nil, toStatus(err)
	}
	if in.Start, in.End, err = parseClockRange(req.StartTime, req.EndTime); err != nil {
		return nil, toStatus(err)
	}

	a, err := s.availability.AddAvailability(ctx, callerID, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.AddAvailabilityResponse{Availability: mapAvailability(a)}, nil
}

func (s *BookingServer) DeleteAvailability(
	ctx context.Context,
	req *bookingpb.DeleteAvailabilityRequest,
) (*bookingpb.DeleteAvailabilityResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("availability_id", req.AvailabilityID)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.availability.DeleteAvailability(ctx, callerID, id); err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.DeleteAvailabilityResponse{}, nil
}

// ListAvailability открыт для всех: пациент выбирает окно перед записью.
func (s *BookingServer) ListAvailability(
	ctx context.Context,
	req *bookingpb.ListAvailabilityRequest,
) (*bookingpb.ListAvailabilityResponse, error) {
	doctorID, err := parseID("doctor_id", req.DoctorID)
	if err != nil {
		return nil, toStatus(err)
	}

	items, err := s.availability.ListAvailability(ctx, doctorID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &bookingpb.ListAvailabilityResponse{
		Availabilities: make([]*bookingpb.Availability, 0, len(items)),
	}
	for i := range items {
		resp.Availabilities = append(resp.Availabilities, mapAvailability(&items[i]))
	}
	return resp, nil
}

func (s *BookingServer) CancelPayment(
	ctx context.Context,
	req *bookingpb.CancelPaymentRequest,
) (*bookingpb.CancelPaymentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID("payment_id", req.PaymentID)
	if err != nil {
		return nil, toStatus(err)
	}

	p, err := s.payments.CancelPayment(ctx, callerID, paymentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.CancelPaymentResponse{Payment: mapPayment(p)}, nil
}

func (s *BookingServer) GetPayment(
	ctx context.Context,
	req *bookingpb.GetPaymentRequest,
) (*bookingpb.GetPaymentResponse, error) {
	callerID, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID("payment_id", req.PaymentID)
	if err != nil {
		return nil, toStatus(err)
	}

	p, err := s.payments.GetPayment(ctx, callerID, paymentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.GetPaymentResponse{Payment: mapPayment(p)}, nil
}

// callerFromContext достаёт пользователя, которого аутентифицировал шлюз перед сервисом.
func callerFromContext(ctx context.Context) (uuid.UUID, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get(bookingpb.CallerIDMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return uuid.Nil, status.Error(codes.Unauthenticated, bookingpb.CallerIDMetadataKey+" is required")
	}
	id, err := uuid.Parse(values[0])
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "invalid "+bookingpb.CallerIDMetadataKey)
	}
	return id, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, apperror.Validation("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("%s must be a UUID", field)
	}
	return id, nil
}

func parseDate(raw string) (d datatypes.Date, err error) {
	d, err = calendar.ParseDate(raw)
	if err != nil {
		return d, apperror.Validation("date must be in YYYY-MM-DD format")
	}
	return d, nil
}

func parseClockRange(rawStart, rawEnd string) (start, end datatypes.Time, err error) {
	if start, err = calendar.ParseClock(rawStart); err != nil {
		return 0, 0, apperror.Validation("start_time must be in HH:MM format")
	}
	if end, err = calendar.ParseClock(rawEnd); err != nil {
		return 0, 0, apperror.Validation("end_time must be in HH:MM format")
	}
	return start, end, nil
}

func mapAppointment(d *AppointmentDetails) *bookingpb.Appointment {
	a := d.Appointment
	out := &bookingpb.Appointment{
		ID:                     a.ID.String(),
		PatientID:              a.PatientID.String(),
		PatientName:            d.PatientName,
		DoctorID:               a.DoctorID.String(),
		DoctorName:             d.DoctorName,
		HospitalID:             a.HospitalID.String(),
		HospitalName:           d.HospitalName,
		DoctorSpecializationID: a.DoctorSpecializationID.String(),
		Date:                   calendar.FormatDate(a.AppointmentDate),
		StartTime:              a.StartTime.String(),
		EndTime:                a.EndTime.String(),
		ConsultationType:       a.ConsultationType,
		Status:                 string(a.Status),
		Payment:                mapPayment(d.Payment),
	}
	if a.CancelledAt != nil {
		out.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return out
}

func mapPayment(p *model.Payment) *bookingpb.Payment {
	if p == nil {
		return nil
	}
	out := &bookingpb.Payment{
		ID:            p.ID.String(),
		AppointmentID: p.AppointmentID.String(),
		Amount:        p.Amount.StringFixed(2),
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		PaymentURL:    p.PaymentURL,
	}
	if p.InvoiceID != nil {
		out.InvoiceID = *p.InvoiceID
	}
	if p.PaidAt != nil {
		out.PaidAt = p.PaidAt.UTC().Format(time.RFC3339)
	}
	return out
}

func mapAvailability(a *model.DoctorAvailability) *bookingpb.Availability {
	return &bookingpb.Availability{
		ID:               a.ID.String(),
		DoctorID:         a.DoctorID.String(),
		Date:             calendar.FormatDate(a.Date),
		StartTime:        a.StartTime.String(),
		EndTime:          a.EndTime.String(),
		ConsultationType: a.ConsultationType,
		IsAvailable:      a.IsAvailable,
	}
}
