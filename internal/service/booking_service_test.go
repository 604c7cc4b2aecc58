package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/testutil"
)

func TestBookAppointment_CreatesPendingAppointmentAndPayment(t *testing.T) {
	env := newTestEnv(t)

	d := env.book(t, clockAt(10, 0), clockAt(11, 0))

	if d.Appointment.Status != model.AppointmentStatusPending {
		t.Fatalf("appointment status = %s, want PENDING", d.Appointment.Status)
	}
	if d.Appointment.ConsultationType != model.ConsultationTypeOffline {
		t.Fatalf("consultation type = %s, want OFFLINE", d.Appointment.ConsultationType)
	}
	if d.PatientName != env.f.Patient.FullName || d.DoctorName != env.f.Doctor.FullName || d.HospitalName != env.f.Hospital.Name {
		t.Fatalf("unexpected names: %+v", d)
	}

	p := env.payment(t, d.Appointment.ID)
	if p.Status != model.PaymentStatusPending {
		t.Fatalf("payment status = %s, want PENDING", p.Status)
	}
	if !p.Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("amount = %s, want 100.00", p.Amount.StringFixed(2))
	}
	if p.PaymentMethod != model.PaymentMethodNotSelected {
		t.Fatalf("payment method = %q", p.PaymentMethod)
	}
	if p.InvoiceID == nil || *p.InvoiceID != "inv-1" || p.PaymentURL == "" {
		t.Fatalf("invoice not stored: %+v", p)
	}
	if !strings.HasPrefix(p.TransactionID, "TXN-2611") {
		t.Fatalf("unexpected transaction id %q", p.TransactionID)
	}

	if len(env.gw.created) != 1 {
		t.Fatalf("expected one invoice, got %d", len(env.gw.created))
	}
	req := env.gw.created[0]
	if req.ExternalID != p.TransactionID || req.PayerEmail != env.f.Patient.Email {
		t.Fatalf("unexpected invoice request: %+v", req)
	}
	if req.Description != "Payment for order #"+p.TransactionID {
		t.Fatalf("unexpected description %q", req.Description)
	}

	if got := env.pub.types(); len(got) != 1 || got[0] != model.EventTypeAppointmentBooked {
		t.Fatalf("published events = %v", got)
	}
	if n := testutil.Count(t, env.gdb, &model.Event{}); n != 1 {
		t.Fatalf("stored events = %d, want 1", n)
	}
}

func TestBookAppointment_PartialHourIsBilledAsFullHour(t *testing.T) {
	env := newTestEnv(t)

	d := env.book(t, clockAt(10, 0), clockAt(11, 15))

	if got := d.Payment.Amount.StringFixed(2); got != "200.00" {
		t.Fatalf("amount = %s, want 200.00", got)
	}
}

func TestBookAppointment_MissingFeeIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	spec := model.DoctorSpecialization{Name: "Dermatology", BaseFee: decimal.RequireFromString("50.00")}
	if err := env.gdb.Create(&spec).Error; err != nil {
		t.Fatalf("create specialization: %v", err)
	}

	_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorID:               env.f.Doctor.ID,
		DoctorSpecializationID: spec.ID,
		Date:                   env.date,
		Start:                  clockAt(10, 0),
		End:                    clockAt(11, 0),
	})

	expectKind(t, err, apperror.KindNotFound)
	if msg := apperror.Message(err); msg != "doctor specialize not found" {
		t.Fatalf("message = %q", msg)
	}
	if n := testutil.Count(t, env.gdb, &model.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0", n)
	}
	if n := testutil.Count(t, env.gdb, &model.Payment{}); n != 0 {
		t.Fatalf("payments = %d, want 0", n)
	}
	if len(env.gw.created) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestBookAppointment_UnknownDoctorIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorID:               uuid.New(),
		DoctorSpecializationID: env.f.Specialization.ID,
		Date:                   env.date,
		Start:                  clockAt(10, 0),
		End:                    clockAt(11, 0),
	})

	expectKind(t, err, apperror.KindNotFound)
}

func TestBookAppointment_OutsideAvailabilityConflicts(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorID:               env.f.Doctor.ID,
		DoctorSpecializationID: env.f.Specialization.ID,
		Date:                   env.date,
		Start:                  clockAt(16, 30),
		End:                    clockAt(17, 30),
	})

	expectKind(t, err, apperror.KindConflict)
	if n := testutil.Count(t, env.gdb, &model.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0", n)
	}
	if n := testutil.Count(t, env.gdb, &model.Payment{}); n != 0 {
		t.Fatalf("payments = %d, want 0", n)
	}
}

func TestBookAppointment_OverlapConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.book(t, clockAt(10, 0), clockAt(11, 0))

	for _, w := range [][2]int{{10, 30}, {9, 30}} {
		_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
			DoctorID:               env.f.Doctor.ID,
			DoctorSpecializationID: env.f.Specialization.ID,
			Date:                   env.date,
			Start:                  clockAt(w[0], w[1]),
			End:                    clockAt(w[0]+1, w[1]),
		})
		expectKind(t, err, apperror.KindConflict)
	}

	// Соседнее окно, касающееся границы, не пересекается.
	env.book(t, clockAt(11, 0), clockAt(12, 0))

	if n := testutil.Count(t, env.gdb, &model.Appointment{}); n != 2 {
		t.Fatalf("appointments = %d, want 2", n)
	}
}

func TestBookAppointment_InvalidWindow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorID:               env.f.Doctor.ID,
		DoctorSpecializationID: env.f.Specialization.ID,
		Date:                   env.date,
		Start:                  clockAt(11, 0),
		End:                    clockAt(11, 0),
	})
	expectKind(t, err, apperror.KindValidation)

	_, err = env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorSpecializationID: env.f.Specialization.ID,
		Date:                   env.date,
		Start:                  clockAt(10, 0),
		End:                    clockAt(11, 0),
	})
	expectKind(t, err, apperror.KindValidation)
	if msg := apperror.Message(err); msg != "doctor_id is required" {
		t.Fatalf("message = %q", msg)
	}
}

func TestBookAppointment_GatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.gw.createErr = errors.New("connection refused")

	_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
		DoctorID:               env.f.Doctor.ID,
		DoctorSpecializationID: env.f.Specialization.ID,
		Date:                   env.date,
		Start:                  clockAt(10, 0),
		End:                    clockAt(11, 0),
	})

	expectKind(t, err, apperror.KindGateway)
	if n := testutil.Count(t, env.gdb, &model.Appointment{}); n != 0 {
		t.Fatalf("appointments = %d, want 0", n)
	}
	if n := testutil.Count(t, env.gdb, &model.Payment{}); n != 0 {
		t.Fatalf("payments = %d, want 0", n)
	}
	if n := testutil.Count(t, env.gdb, &model.Event{}); n != 0 {
		t.Fatalf("events = %d, want 0", n)
	}
	if len(env.pub.types()) != 0 {
		t.Fatalf("nothing must be published on rollback")
	}
}

func TestBookAppointment_ConcurrentSameWindow(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 4
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.booking.BookAppointment(context.Background(), env.f.Patient.ID, BookAppointmentInput{
				DoctorID:               env.f.Doctor.ID,
				DoctorSpecializationID: env.f.Specialization.ID,
				Date:                   env.date,
				Start:                  clockAt(10, 0),
				End:                    clockAt(11, 0),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperror.IsKind(err, apperror.KindConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflict != attempts-1 {
		t.Fatalf("ok=%d conflict=%d, want 1 and %d", ok, conflict, attempts-1)
	}
	if n := testutil.Count(t, env.gdb, &model.Appointment{}); n != 1 {
		t.Fatalf("appointments = %d, want 1", n)
	}
}

func TestRescheduleAppointment_MovesWindowAndRecalculates(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))

	got, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 0),
		End:   clockAt(14, 30),
	})
	if err != nil {
		t.Fatalf("RescheduleAppointment: %v", err)
	}

	a := env.appointment(t, d.Appointment.ID)
	if a.StartTime != clockAt(13, 0) || a.EndTime != clockAt(14, 30) {
		t.Fatalf("window not moved: %s-%s", a.StartTime, a.EndTime)
	}
	if a.Status != model.AppointmentStatusPending {
		t.Fatalf("status = %s, want PENDING", a.Status)
	}
	if p := env.payment(t, d.Appointment.ID); p.Amount.StringFixed(2) != "200.00" {
		t.Fatalf("amount = %s, want 200.00", p.Amount.StringFixed(2))
	}
	if got.Payment.Amount.StringFixed(2) != "200.00" {
		t.Fatalf("response amount = %s", got.Payment.Amount.StringFixed(2))
	}
}

func TestRescheduleAppointment_OverlapWithItselfIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(10, 30),
		End:   clockAt(11, 30),
	})
	if err != nil {
		t.Fatalf("RescheduleAppointment: %v", err)
	}
}

func TestRescheduleAppointment_ConflictLeavesAppointmentUnchanged(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	env.book(t, clockAt(13, 0), clockAt(14, 0))

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 30),
		End:   clockAt(14, 30),
	})

	expectKind(t, err, apperror.KindConflict)
	if a := env.appointment(t, d.Appointment.ID); a.StartTime != clockAt(10, 0) {
		t.Fatalf("appointment moved despite conflict: %s", a.StartTime)
	}
}

func TestRescheduleAppointment_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	stranger := env.newUser(t, "stranger@example.com")

	_, err := env.booking.RescheduleAppointment(context.Background(), stranger.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 0),
		End:   clockAt(14, 0),
	})

	expectKind(t, err, apperror.KindForbidden)
}

func TestRescheduleAppointment_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, uuid.New(), RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 0),
		End:   clockAt(14, 0),
	})

	expectKind(t, err, apperror.KindNotFound)
}

func TestRescheduleAppointment_CancelledFails(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	if _, err := env.booking.CancelAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID); err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 0),
		End:   clockAt(14, 0),
	})

	expectKind(t, err, apperror.KindBusinessRule)
	a := env.appointment(t, d.Appointment.ID)
	if a.Status != model.AppointmentStatusCancelled || a.StartTime != clockAt(10, 0) {
		t.Fatalf("cancelled appointment changed: %+v", a)
	}
}

func TestRescheduleAppointment_PastDateFails(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  mustDate(t, "2026-10-31"),
		Start: clockAt(10, 0),
		End:   clockAt(11, 0),
	})

	expectKind(t, err, apperror.KindBusinessRule)
}

func TestRescheduleAppointment_CompletedPaymentRollsBack(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	if err := env.payments.HandleNotification(context.Background(), Notification{InvoiceID: "inv-1", Status: "PAID"}); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	_, err := env.booking.RescheduleAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID, RescheduleAppointmentInput{
		Date:  env.date,
		Start: clockAt(13, 0),
		End:   clockAt(14, 0),
	})

	expectKind(t, err, apperror.KindBusinessRule)
	a := env.appointment(t, d.Appointment.ID)
	if a.Status != model.AppointmentStatusScheduled || a.StartTime != clockAt(10, 0) {
		t.Fatalf("appointment must be rolled back: %+v", a)
	}
}

func TestCancelAppointment_CancelsAppointmentAndPayment(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))

	got, err := env.booking.CancelAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID)
	if err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}

	a := env.appointment(t, d.Appointment.ID)
	if a.Status != model.AppointmentStatusCancelled || a.CancelledAt == nil {
		t.Fatalf("appointment not cancelled: %+v", a)
	}
	if p := env.payment(t, d.Appointment.ID); p.Status != model.PaymentStatusCancelled {
		t.Fatalf("payment status = %s, want CANCELLED", p.Status)
	}
	if got.Payment.Status != model.PaymentStatusCancelled {
		t.Fatalf("response payment status = %s", got.Payment.Status)
	}
	if len(env.gw.expired) != 1 || env.gw.expired[0] != "inv-1" {
		t.Fatalf("invoice not expired: %v", env.gw.expired)
	}

	// Окно снова свободно.
	env.book(t, clockAt(10, 0), clockAt(11, 0))
}

func TestCancelAppointment_ScheduledFails(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	if err := env.payments.HandleNotification(context.Background(), Notification{InvoiceID: "inv-1", Status: "PAID"}); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	_, err := env.booking.CancelAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID)

	expectKind(t, err, apperror.KindBusinessRule)
	if a := env.appointment(t, d.Appointment.ID); a.Status != model.AppointmentStatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", a.Status)
	}
}

func TestCancelAppointment_GatewayFailureKeepsBothPending(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	env.gw.expireErr = errors.New("timeout")

	_, err := env.booking.CancelAppointment(context.Background(), env.f.Patient.ID, d.Appointment.ID)

	expectKind(t, err, apperror.KindGateway)
	if a := env.appointment(t, d.Appointment.ID); a.Status != model.AppointmentStatusPending {
		t.Fatalf("appointment status = %s, want PENDING", a.Status)
	}
	if p := env.payment(t, d.Appointment.ID); p.Status != model.PaymentStatusPending {
		t.Fatalf("payment status = %s, want PENDING", p.Status)
	}
}

func TestCancelAppointment_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	stranger := env.newUser(t, "stranger@example.com")

	_, err := env.booking.CancelAppointment(context.Background(), stranger.ID, d.Appointment.ID)

	expectKind(t, err, apperror.KindForbidden)
}

func TestFindByID_VisibleToPatientAndDoctorOnly(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	ctx := context.Background()

	if _, err := env.booking.FindByID(ctx, env.f.Patient.ID, d.Appointment.ID); err != nil {
		t.Fatalf("patient: %v", err)
	}
	got, err := env.booking.FindByID(ctx, env.f.DoctorUser.ID, d.Appointment.ID)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if got.Payment == nil || got.Payment.Status != model.PaymentStatusPending {
		t.Fatalf("payment missing in details: %+v", got)
	}

	stranger := env.newUser(t, "stranger@example.com")
	_, err = env.booking.FindByID(ctx, stranger.ID, d.Appointment.ID)
	expectKind(t, err, apperror.KindForbidden)

	_, err = env.booking.FindByID(ctx, env.f.Patient.ID, uuid.New())
	expectKind(t, err, apperror.KindNotFound)
}

func TestListAppointments(t *testing.T) {
	env := newTestEnv(t)
	env.book(t, clockAt(10, 0), clockAt(11, 0))
	env.book(t, clockAt(12, 0), clockAt(13, 0))
	env.book(t, clockAt(14, 0), clockAt(15, 0))
	ctx := context.Background()

	page, err := env.booking.ListUserAppointments(ctx, env.f.Patient.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListUserAppointments: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || !page.HasNext || page.HasPrev {
		t.Fatalf("unexpected page: total=%d items=%d next=%v prev=%v", page.Total, len(page.Items), page.HasNext, page.HasPrev)
	}
	if page.Items[0].Appointment.StartTime != clockAt(14, 0) {
		t.Fatalf("latest appointment must come first, got %s", page.Items[0].Appointment.StartTime)
	}
	for _, d := range page.Items {
		if d.Payment == nil {
			t.Fatalf("payment missing for %s", d.Appointment.ID)
		}
	}

	day, err := env.booking.ListDoctorAppointments(ctx, env.f.DoctorUser.ID, env.date)
	if err != nil {
		t.Fatalf("ListDoctorAppointments: %v", err)
	}
	if len(day) != 3 || day[0].Appointment.StartTime != clockAt(10, 0) {
		t.Fatalf("unexpected doctor day: %d items", len(day))
	}

	_, err = env.booking.ListDoctorAppointments(ctx, env.f.Patient.ID, env.date)
	expectKind(t, err, apperror.KindNotFound)
}

func TestReads_AppointmentWithoutPaymentIsInternal(t *testing.T) {
	env := newTestEnv(t)
	d := env.book(t, clockAt(10, 0), clockAt(11, 0))
	ctx := context.Background()

	if err := env.gdb.Where("appointment_id = ?", d.Appointment.ID).Delete(&model.Payment{}).Error; err != nil {
		t.Fatalf("delete payment: %v", err)
	}

	_, err := env.booking.FindByID(ctx, env.f.Patient.ID, d.Appointment.ID)
	expectKind(t, err, apperror.KindInternal)
	if !strings.Contains(err.Error(), "has no payment") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = env.booking.ListUserAppointments(ctx, env.f.Patient.ID, 1, 10)
	expectKind(t, err, apperror.KindInternal)

	_, err = env.booking.ListDoctorAppointments(ctx, env.f.DoctorUser.ID, env.date)
	expectKind(t, err, apperror.KindInternal)
}
