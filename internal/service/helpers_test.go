package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/gateway"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/testutil"
)

type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	created   []gateway.InvoiceRequest
	expired   []string
	createErr error
	expireErr error
}

func (g *fakeGateway) CreateInvoice(_ context.Context, req gateway.InvoiceRequest) (*gateway.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created = append(g.created, req)
	id := fmt.Sprintf("inv-%d", g.seq)
	return &gateway.Invoice{ID: id, Status: "PENDING", URL: "https://checkout.example/" + id}, nil
}

func (g *fakeGateway) ExpireInvoice(_ context.Context, invoiceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expireErr != nil {
		return g.expireErr
	}
	g.expired = append(g.expired, invoiceID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type testEnv struct {
	gdb          *gorm.DB
	tx           *db.Transactor
	f            testutil.Fixture
	gw           *fakeGateway
	pub          *recordingPublisher
	repos        repository.Repositories
	payments     *PaymentService
	booking      *BookingService
	availability *AvailabilityService
	date         datatypes.Date
}

// Сегодня 2026-11-01, у врача открыто окно 09:00-17:00 OFFLINE на 2026-11-02.
var testNow = time.Date(2026, time.November, 1, 8, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewDB(t)
	f := testutil.Seed(t, gdb)
	repos := repository.NewRepositories(gdb)
	tx := db.NewTransactor(gdb)
	gw := &fakeGateway{}
	pub := &recordingPublisher{}
	log := zap.NewNop()

	audit := NewAuditLog(repos.Events, pub, log)
	payments := NewPaymentService(tx, repos, gw, audit, log)
	booking := NewBookingService(tx, repos, NewRepositoryFeeResolver(repos.Fees), payments, audit, log, time.UTC)
	availability := NewAvailabilityService(tx, repos, audit, nil, time.Minute, log, time.UTC)

	clock := func() time.Time { return testNow }
	payments.now = clock
	booking.now = clock
	availability.now = clock

	date := mustDate(t, "2026-11-02")
	testutil.AddAvailability(t, gdb, f.Doctor.ID, date, clockAt(9, 0), clockAt(17, 0), model.ConsultationTypeOffline)

	return &testEnv{
		gdb:          gdb,
		tx:           tx,
		f:            f,
		gw:           gw,
		pub:          pub,
		repos:        repos,
		payments:     payments,
		booking:      booking,
		availability: availability,
		date:         date,
	}
}

func (e *testEnv) book(t *testing.T, start, end datatypes.Time) *AppointmentDetails {
	t.Helper()
	d, err := e.booking.BookAppointment(context.Background(), e.f.Patient.ID, BookAppointmentInput{
		DoctorID:               e.f.Doctor.ID,
		DoctorSpecializationID: e.f.Specialization.ID,
		Date:                   e.date,
		Start:                  start,
		End:                    end,
	})
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	return d
}

func (e *testEnv) appointment(t *testing.T, id uuid.UUID) model.Appointment {
	t.Helper()
	var a model.Appointment
	if err := e.gdb.First(&a, "id = ?", id).Error; err != nil {
		t.Fatalf("load appointment: %v", err)
	}
	return a
}

func (e *testEnv) payment(t *testing.T, appointmentID uuid.UUID) model.Payment {
	t.Helper()
	var p model.Payment
	if err := e.gdb.First(&p, "appointment_id = ?", appointmentID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	return p
}

func (e *testEnv) newUser(t *testing.T, email string) model.User {
	t.Helper()
	u := model.User{FullName: email, Email: email}
	if err := e.gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustDate(t *testing.T, s string) datatypes.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func clockAt(h, m int) datatypes.Time {
	return datatypes.NewTime(h, m, 0, 0)
}

func expectKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperror.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
