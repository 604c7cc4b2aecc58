package repository

import "gorm.io/gorm"

// Repositories — все GORM-репозитории ядра поверх одного пула.
type Repositories struct {
	Users         UserRepository
	Doctors       DoctorRepository
	Hospitals     HospitalRepository
	Fees          FeeRepository
	Availability  AvailabilityRepository
	Appointments  AppointmentRepository
	Payments      PaymentRepository
	Notifications NotificationRepository
	Events        EventRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         NewGormUserRepository(db),
		Doctors:       NewGormDoctorRepository(db),
		Hospitals:     NewGormHospitalRepository(db),
		Fees:          NewGormFeeRepository(db),
		Availability:  NewGormAvailabilityRepository(db),
		Appointments:  NewGormAppointmentRepository(db),
		Payments:      NewGormPaymentRepository(db),
		Notifications: NewGormNotificationRepository(db),
		Events:        NewGormEventRepository(db),
	}
}
