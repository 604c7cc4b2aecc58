package repository

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/testutil"
)

func TestIsDoctorAvailable(t *testing.T) {
	gdb := testutil.NewDB(t)
	f := testutil.Seed(t, gdb)
	repo := NewGormAvailabilityRepository(gdb)
	ctx := context.Background()

	date, _ := calendar.ParseDate("2026-11-02")
	otherDate, _ := calendar.ParseDate("2026-11-03")
	testutil.AddAvailability(t, gdb, f.Doctor.ID, date, datatypes.NewTime(9, 0, 0, 0), datatypes.NewTime(12, 0, 0, 0), "OFFLINE")

	closed := model.DoctorAvailability{
		DoctorID:         f.Doctor.ID,
		Date:             date,
		StartTime:        datatypes.NewTime(14, 0, 0, 0),
		EndTime:          datatypes.NewTime(16, 0, 0, 0),
		ConsultationType: "OFFLINE",
		IsAvailable:      false,
	}
	if err := gdb.Create(&closed).Error; err != nil {
		t.Fatalf("seed closed window: %v", err)
	}

	cases := []struct {
		name       string
		date       datatypes.Date
		start, end datatypes.Time
		ctype      string
		want       bool
	}{
		{"inside window", date, datatypes.NewTime(10, 0, 0, 0), datatypes.NewTime(11, 0, 0, 0), "OFFLINE", true},
		{"exact bounds", date, datatypes.NewTime(9, 0, 0, 0), datatypes.NewTime(12, 0, 0, 0), "OFFLINE", true},
		{"case insensitive type", date, datatypes.NewTime(10, 0, 0, 0), datatypes.NewTime(11, 0, 0, 0), "offline", true},
		{"sticks out", date, datatypes.NewTime(11, 0, 0, 0), datatypes.NewTime(12, 30, 0, 0), "OFFLINE", false},
		{"other type", date, datatypes.NewTime(10, 0, 0, 0), datatypes.NewTime(11, 0, 0, 0), "ONLINE", false},
		{"other date", otherDate, datatypes.NewTime(10, 0, 0, 0), datatypes.NewTime(11, 0, 0, 0), "OFFLINE", false},
		{"closed window", date, datatypes.NewTime(14, 0, 0, 0), datatypes.NewTime(15, 0, 0, 0), "OFFLINE", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.IsDoctorAvailable(ctx, f.Doctor.ID, tc.date, tc.start, tc.end, tc.ctype)
			if err != nil {
				t.Fatalf("IsDoctorAvailable: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsDoctorAvailable_AgreesWithWindowCovers(t *testing.T) {
	gdb := testutil.NewDB(t)
	f := testutil.Seed(t, gdb)
	repo := NewGormAvailabilityRepository(gdb)
	ctx := context.Background()

	date, _ := calendar.ParseDate("2026-11-02")
	open := testutil.AddAvailability(t, gdb, f.Doctor.ID, date, datatypes.NewTime(9, 0, 0, 0), datatypes.NewTime(12, 0, 0, 0), "OFFLINE")
	slot := calendar.Window{Start: open.StartTime, End: open.EndTime}

	windows := []calendar.Window{
		{Start: datatypes.NewTime(9, 0, 0, 0), End: datatypes.NewTime(12, 0, 0, 0)},
		{Start: datatypes.NewTime(9, 0, 0, 0), End: datatypes.NewTime(9, 30, 0, 0)},
		{Start: datatypes.NewTime(11, 30, 0, 0), End: datatypes.NewTime(12, 0, 0, 0)},
		{Start: datatypes.NewTime(8, 30, 0, 0), End: datatypes.NewTime(9, 30, 0, 0)},
		{Start: datatypes.NewTime(11, 30, 0, 0), End: datatypes.NewTime(12, 30, 0, 0)},
		{Start: datatypes.NewTime(8, 0, 0, 0), End: datatypes.NewTime(13, 0, 0, 0)},
		{Start: datatypes.NewTime(12, 0, 0, 0), End: datatypes.NewTime(13, 0, 0, 0)},
	}
	for _, w := range windows {
		got, err := repo.IsDoctorAvailable(ctx, f.Doctor.ID, date, w.Start, w.End, "OFFLINE")
		if err != nil {
			t.Fatalf("IsDoctorAvailable: %v", err)
		}
		if want := slot.Covers(w); got != want {
			t.Fatalf("%s-%s: IsDoctorAvailable = %v, Window.Covers = %v", w.Start, w.End, got, want)
		}
	}
}

func TestExistsDuplicateAndListFrom(t *testing.T) {
	gdb := testutil.NewDB(t)
	f := testutil.Seed(t, gdb)
	repo := NewGormAvailabilityRepository(gdb)
	ctx := context.Background()

	past, _ := calendar.ParseDate("2026-10-01")
	future, _ := calendar.ParseDate("2026-11-02")
	testutil.AddAvailability(t, gdb, f.Doctor.ID, past, datatypes.NewTime(9, 0, 0, 0), datatypes.NewTime(10, 0, 0, 0), "OFFLINE")
	a := testutil.AddAvailability(t, gdb, f.Doctor.ID, future, datatypes.NewTime(9, 0, 0, 0), datatypes.NewTime(10, 0, 0, 0), "OFFLINE")

	dup := model.DoctorAvailability{
		DoctorID:         f.Doctor.ID,
		Date:             future,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		ConsultationType: "OFFLINE",
	}
	exists, err := repo.ExistsDuplicate(ctx, &dup)
	if err != nil {
		t.Fatalf("ExistsDuplicate: %v", err)
	}
	if !exists {
		t.Fatalf("expected duplicate to be found")
	}

	dup.EndTime = datatypes.NewTime(11, 0, 0, 0)
	if exists, _ := repo.ExistsDuplicate(ctx, &dup); exists {
		t.Fatalf("different end time must not be a duplicate")
	}

	from, _ := calendar.ParseDate("2026-10-16")
	items, err := repo.ListByDoctorFrom(ctx, f.Doctor.ID, from)
	if err != nil {
		t.Fatalf("ListByDoctorFrom: %v", err)
	}
	if len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("expected only the future window, got %d items", len(items))
	}
}
