package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/testutil"
)

func TestAddAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.availability.AddAvailability(ctx, env.f.DoctorUser.ID, AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-03"),
		Start:            clockAt(9, 0),
		End:              clockAt(12, 0),
		ConsultationType: " online ",
	})
	if err != nil {
		t.Fatalf("AddAvailability: %v", err)
	}
	if a.DoctorID != env.f.Doctor.ID || a.ConsultationType != model.ConsultationTypeOnline || !a.IsAvailable {
		t.Fatalf("unexpected availability: %+v", a)
	}
	if got := env.pub.types(); len(got) != 1 || got[0] != model.EventTypeAvailabilityAdded {
		t.Fatalf("published events = %v", got)
	}

	_, err = env.availability.AddAvailability(ctx, env.f.DoctorUser.ID, AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-03"),
		Start:            clockAt(9, 0),
		End:              clockAt(12, 0),
		ConsultationType: "ONLINE",
	})
	expectKind(t, err, apperror.KindConflict)
}

func TestAddAvailability_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	valid := AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-03"),
		Start:            clockAt(9, 0),
		End:              clockAt(12, 0),
		ConsultationType: "OFFLINE",
	}

	cases := []struct {
		name   string
		caller uuid.UUID
		mutate func(*AddAvailabilityInput)
		kind   apperror.Kind
	}{
		{"patient is not a doctor", env.f.Patient.ID, func(*AddAvailabilityInput) {}, apperror.KindForbidden},
		{"bad consultation type", env.f.DoctorUser.ID, func(in *AddAvailabilityInput) { in.ConsultationType = "PHONE" }, apperror.KindValidation},
		{"missing consultation type", env.f.DoctorUser.ID, func(in *AddAvailabilityInput) { in.ConsultationType = "" }, apperror.KindValidation},
		{"inverted window", env.f.DoctorUser.ID, func(in *AddAvailabilityInput) { in.Start, in.End = in.End, in.Start }, apperror.KindValidation},
		{"past date", env.f.DoctorUser.ID, func(in *AddAvailabilityInput) { in.Date = mustDate(t, "2026-10-31") }, apperror.KindBusinessRule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := env.availability.AddAvailability(ctx, tc.caller, in)
			expectKind(t, err, tc.kind)
		})
	}

	// Осталось только окно из newTestEnv.
	if n := testutil.Count(t, env.gdb, &model.DoctorAvailability{}); n != 1 {
		t.Fatalf("availabilities = %d, want 1", n)
	}
}

func TestAddAvailability_BadTypeMessage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.availability.AddAvailability(context.Background(), env.f.DoctorUser.ID, AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-03"),
		Start:            clockAt(9, 0),
		End:              clockAt(12, 0),
		ConsultationType: "PHONE",
	})

	if msg := apperror.Message(err); msg != "consultation_type must be ONLINE or OFFLINE" {
		t.Fatalf("message = %q", msg)
	}
}

func TestDeleteAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, err := env.availability.AddAvailability(ctx, env.f.DoctorUser.ID, AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-03"),
		Start:            clockAt(9, 0),
		End:              clockAt(12, 0),
		ConsultationType: "OFFLINE",
	})
	if err != nil {
		t.Fatalf("AddAvailability: %v", err)
	}

	otherUser := env.newUser(t, "other-doctor@example.com")
	other := model.Doctor{UserID: otherUser.ID, HospitalID: env.f.Hospital.ID, FullName: "dr. Other"}
	if err := env.gdb.Create(&other).Error; err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	err = env.availability.DeleteAvailability(ctx, otherUser.ID, a.ID)
	expectKind(t, err, apperror.KindForbidden)

	if err := env.availability.DeleteAvailability(ctx, env.f.DoctorUser.ID, a.ID); err != nil {
		t.Fatalf("DeleteAvailability: %v", err)
	}
	err = env.availability.DeleteAvailability(ctx, env.f.DoctorUser.ID, a.ID)
	expectKind(t, err, apperror.KindNotFound)
}

func TestListAvailability_CachedAndEvicted(t *testing.T) {
	env := newTestEnv(t)
	c, mr := newTestRedisCache(t)
	svc := NewAvailabilityService(env.tx, env.repos, NewAuditLog(env.repos.Events, env.pub, zap.NewNop()), c, time.Minute, zap.NewNop(), time.UTC)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	items, err := svc.ListAvailability(ctx, env.f.Doctor.ID)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(items) != 1 || items[0].StartTime != clockAt(9, 0) {
		t.Fatalf("unexpected items: %+v", items)
	}
	key := "test:availability:" + env.f.Doctor.ID.String()
	if !mr.Exists(key) {
		t.Fatalf("availability not cached")
	}

	// Строка, вставленная в обход сервиса, не видна, пока кэш жив.
	testutil.AddAvailability(t, env.gdb, env.f.Doctor.ID, mustDate(t, "2026-11-04"), clockAt(9, 0), clockAt(10, 0), model.ConsultationTypeOffline)
	items, err = svc.ListAvailability(ctx, env.f.Doctor.ID)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("cached items = %d, want 1", len(items))
	}

	if _, err := svc.AddAvailability(ctx, env.f.DoctorUser.ID, AddAvailabilityInput{
		Date:             mustDate(t, "2026-11-05"),
		Start:            clockAt(9, 0),
		End:              clockAt(10, 0),
		ConsultationType: "ONLINE",
	}); err != nil {
		t.Fatalf("AddAvailability: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("cache must be evicted after add")
	}

	items, err = svc.ListAvailability(ctx, env.f.Doctor.ID)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items after eviction = %d, want 3", len(items))
	}

	// Назавтра окно на 2026-11-02 пропадает и из кэшированного списка.
	svc.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	items, err = svc.ListAvailability(ctx, env.f.Doctor.ID)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items after a day = %d, want 2", len(items))
	}
}

func TestListAvailability_UnknownDoctor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.availability.ListAvailability(context.Background(), uuid.New())
	expectKind(t, err, apperror.KindNotFound)
}
