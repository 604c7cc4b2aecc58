// Package bookingv1 — контракт gRPC-сервиса записи на приём (booking.v1).
// Сообщения передаются в JSON: кодек регистрируется в codec.go.
package bookingv1

// Даты в формате YYYY-MM-DD, время в формате HH:MM[:SS], суммы строкой с двумя знаками.

type Payment struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	InvoiceID     string `json:"invoice_id,omitempty"`
	PaymentURL    string `json:"payment_url,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
}

type Appointment struct {
	ID                     string   `json:"id"`
	PatientID              string   `json:"patient_id"`
	PatientName            string   `json:"patient_name"`
	DoctorID               string   `json:"doctor_id"`
	DoctorName             string   `json:"doctor_name"`
	HospitalID             string   `json:"hospital_id"`
	HospitalName           string   `json:"hospital_name"`
	DoctorSpecializationID string   `json:"doctor_specialization_id"`
	Date                   string   `json:"date"`
	StartTime              string   `json:"start_time"`
	EndTime                string   `json:"end_time"`
	ConsultationType       string   `json:"consultation_type"`
	Status                 string   `json:"status"`
	CancelledAt            string   `json:"cancelled_at,omitempty"`
	Payment                *Payment `json:"payment,omitempty"`
}

type Availability struct {
	ID               string `json:"id"`
	DoctorID         string `json:"doctor_id"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ConsultationType string `json:"consultation_type"`
	IsAvailable      bool   `json:"is_available"`
}

type BookAppointmentRequest struct {
	DoctorID               string `json:"doctor_id"`
	DoctorSpecializationID string `json:"doctor_specialization_id"`
	Date                   string `json:"date"`
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time"`
}

type BookAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type RescheduleAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type RescheduleAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type CancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type CancelAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type GetAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type GetAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type ListUserAppointmentsRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type ListUserAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Page         int32          `json:"page"`
	PageSize     int32          `json:"page_size"`
	TotalCount   int64          `json:"total_count"`
	HasNext      bool           `json:"has_next"`
	HasPrev      bool           `json:"has_prev"`
}

type ListDoctorAppointmentsRequest struct {
	Date string `json:"date"`
}

type ListDoctorAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type AddAvailabilityRequest struct {
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ConsultationType string `json:"consultation_type"`
}

type AddAvailabilityResponse struct {
	Availability *Availability `json:"availability"`
}

type DeleteAvailabilityRequest struct {
	AvailabilityID string `json:"availability_id"`
}

type DeleteAvailabilityResponse struct{}

type ListAvailabilityRequest struct {
	DoctorID string `json:"doctor_id"`
}

type ListAvailabilityResponse struct {
	Availabilities []*Availability `json:"availabilities"`
}

type CancelPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type CancelPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type GetPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type GetPaymentResponse struct {
	Payment *Payment `json:"payment"`
}
