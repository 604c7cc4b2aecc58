// Package testutil поднимает sqlite в памяти со схемой ядра и базовыми справочниками.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// NewDB открывает sqlite в памяти с одним соединением и мигрирует схему.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Одно соединение: база в памяти живёт, пока оно открыто.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

// Fixture — минимальный набор справочников для записи на приём.
type Fixture struct {
	Patient        model.User
	DoctorUser     model.User
	Doctor         model.Doctor
	Hospital       model.Hospital
	Specialization model.DoctorSpecialization
	Fee            model.HospitalDoctorFee
}

// Seed создаёт пациента, врача в больнице и специализацию со ставкой 100.00 в час (OFFLINE).
func Seed(t *testing.T, gdb *gorm.DB) Fixture {
	t.Helper()

	f := Fixture{
		Patient:    model.User{ID: uuid.New(), FullName: "Budi Santoso", Email: "budi@example.com"},
		DoctorUser: model.User{ID: uuid.New(), FullName: "dr. Sari", Email: "sari@example.com"},
		Hospital:   model.Hospital{ID: uuid.New(), Name: "RS Harapan"},
		Specialization: model.DoctorSpecialization{
			ID:      uuid.New(),
			Name:    "Cardiology",
			BaseFee: decimal.RequireFromString("100.00"),
		},
	}
	f.Doctor = model.Doctor{ID: uuid.New(), UserID: f.DoctorUser.ID, HospitalID: f.Hospital.ID, FullName: "dr. Sari"}
	f.Fee = model.HospitalDoctorFee{
		ID:                     uuid.New(),
		HospitalID:             f.Hospital.ID,
		DoctorSpecializationID: f.Specialization.ID,
		Fee:                    decimal.RequireFromString("100.00"),
		ConsultationType:       model.ConsultationTypeOffline,
	}

	for _, v := range []any{&f.Patient, &f.DoctorUser, &f.Hospital, &f.Specialization, &f.Doctor, &f.Fee} {
		if err := gdb.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
	return f
}

// AddAvailability открывает окно врача на дату.
func AddAvailability(
	t *testing.T,
	gdb *gorm.DB,
	doctorID uuid.UUID,
	date datatypes.Date,
	start, end datatypes.Time,
	consultationType string,
) model.DoctorAvailability {
	t.Helper()

	a := model.DoctorAvailability{
		DoctorID:         doctorID,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		ConsultationType: consultationType,
		IsAvailable:      true,
	}
	if err := gdb.Create(&a).Error; err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	return a
}

// Count считает строки в таблице модели.
func Count(t *testing.T, gdb *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", m, err)
	}
	return n
}
