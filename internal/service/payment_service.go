package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/gateway"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// GatewayStatus — статус счёта, как его присылает шлюз.
type GatewayStatus int

const (
	GatewayStatusUnknown GatewayStatus = iota
	GatewayStatusPending
	GatewayStatusPaid
	GatewayStatusSettled
	GatewayStatusExpired
	GatewayStatusFailed
)

func ParseGatewayStatus(s string) GatewayStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return GatewayStatusPending
	case "PAID":
		return GatewayStatusPaid
	case "SETTLED":
		return GatewayStatusSettled
	case "EXPIRED":
		return GatewayStatusExpired
	case "FAILED":
		return GatewayStatusFailed
	default:
		return GatewayStatusUnknown
	}
}

func (s GatewayStatus) String() string {
	switch s {
	case GatewayStatusPending:
		return "PENDING"
	case GatewayStatusPaid:
		return "PAID"
	case GatewayStatusSettled:
		return "SETTLED"
	case GatewayStatusExpired:
		return "EXPIRED"
	case GatewayStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Notification — уведомление шлюза о смене статуса счёта.
type Notification struct {
	// Заголовок Webhook-Id; шлюз повторяет его при ретраях.
	WebhookID     string
	InvoiceID     string
	ExternalID    string
	Status        string
	PaymentMethod string
	Amount        decimal.Decimal
	PaidAt        *time.Time
}

// DedupKey возвращает ключ идемпотентности уведомления.
func (n Notification) DedupKey() string {
	if n.WebhookID != "" {
		return n.WebhookID
	}
	return n.InvoiceID + ":" + strings.ToUpper(strings.TrimSpace(n.Status))
}

// CalculateAmount берёт ставку за каждый начатый час приёма и округляет до копеек.
func CalculateAmount(hourlyFee decimal.Decimal, d time.Duration) decimal.Decimal {
	hours := decimal.NewFromInt(calendar.BillableHours(d))
	return hourlyFee.Mul(hours).Round(2)
}

// PaymentService ведёт жизненный цикл платежа за запись.
type PaymentService struct {
	tx            *db.Transactor
	payments      repository.PaymentRepository
	appointments  repository.AppointmentRepository
	fees          repository.FeeRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	gateway       gateway.PaymentGateway
	audit         *AuditLog
	log           *zap.Logger
	now           func() time.Time
}

func NewPaymentService(
	tx *db.Transactor,
	repos repository.Repositories,
	gw gateway.PaymentGateway,
	audit *AuditLog,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:            tx,
		payments:      repos.Payments,
		appointments:  repos.Appointments,
		fees:          repos.Fees,
		users:         repos.Users,
		notifications: repos.Notifications,
		gateway:       gw,
		audit:         audit,
		log:           log,
		now:           time.Now,
	}
}

// CreatePayment создаёт PENDING-платёж за новую запись и выставляет счёт.
// Вызывается внутри транзакции записи: ошибка шлюза откатывает всё.
func (s *PaymentService) CreatePayment(ctx context.Context, appt *model.Appointment) (*model.Payment, error) {
	s.log.Info("PaymentService.CreatePayment called", zap.String("appointment_id", appt.ID.String()))

	if appt.Status != model.AppointmentStatusPending {
		return nil, apperror.BusinessRule("payment can only be created for a PENDING appointment, got %s", appt.Status)
	}

	spec, err := s.fees.GetSpecialization(ctx, appt.DoctorSpecializationID)
	if err != nil {
		return nil, lookupErr(err, "doctor specialization")
	}
	patient, err := s.users.GetByID(ctx, appt.PatientID)
	if err != nil {
		return nil, lookupErr(err, "patient")
	}

	txID := NewTransactionID(s.now())
	payment := &model.Payment{
		AppointmentID: appt.ID,
		Amount:        CalculateAmount(spec.BaseFee, appt.Duration()),
		PaymentMethod: model.PaymentMethodNotSelected,
		TransactionID: txID,
		Status:        model.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, storeErr(err, "payment")
	}

	invoice, err := s.gateway.CreateInvoice(ctx, gateway.InvoiceRequest{
		ExternalID:  txID,
		Amount:      payment.Amount,
		PayerEmail:  patient.Email,
		Description: "Payment for order #" + txID,
	})
	if err != nil {
		s.log.Error("failed to create invoice",
			zap.String("transaction_id", txID),
			zap.Error(err),
		)
		return nil, apperror.Gateway(err, "failed to create invoice")
	}

	payment.InvoiceID = &invoice.ID
	payment.InvoiceStatus = invoice.Status
	payment.PaymentURL = invoice.URL
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, storeErr(err, "payment")
	}

	s.log.Info("invoice created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoice.ID),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return payment, nil
}

// RecalculatePayment пересчитывает сумму после переноса записи.
// Счёт в шлюзе не перевыставляется.
func (s *PaymentService) RecalculatePayment(ctx context.Context, appt *model.Appointment) (*model.Payment, error) {
	s.log.Info("PaymentService.RecalculatePayment called", zap.String("appointment_id", appt.ID.String()))

	payment, err := s.payments.GetByAppointmentIDForUpdate(ctx, appt.ID)
	if err != nil {
		return nil, lookupErr(err, "payment")
	}
	if payment.Status != model.PaymentStatusPending {
		return nil, apperror.BusinessRule("payment is %s, only PENDING payments can be recalculated", payment.Status)
	}

	spec, err := s.fees.GetSpecialization(ctx, appt.DoctorSpecializationID)
	if err != nil {
		return nil, lookupErr(err, "doctor specialization")
	}

	payment.Amount = CalculateAmount(spec.BaseFee, appt.Duration())
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, storeErr(err, "payment")
	}
	return payment, nil
}

// CancelPaymentForAppointment отменяет PENDING-платёж записи в текущей транзакции.
func (s *PaymentService) CancelPaymentForAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.GetByAppointmentIDForUpdate(ctx, appointmentID)
	if err != nil {
		return nil, lookupErr(err, "payment")
	}
	if err := s.cancelPending(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// CancelPayment — пациент отказывается платить. Вместе с платежом
// отменяется и запись, чтобы окно врача освободилось.
func (s *PaymentService) CancelPayment(ctx context.Context, callerID, paymentID uuid.UUID) (*model.Payment, error) {
	s.log.Info("PaymentService.CancelPayment called",
		zap.String("caller_id", callerID.String()),
		zap.String("payment_id", paymentID.String()),
	)

	ctx, batch := s.audit.begin(ctx)
	var result *model.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return lookupErr(err, "payment")
		}

		// Порядок блокировок: запись, затем платёж.
		appt, err := s.appointments.GetByIDForUpdate(ctx, current.AppointmentID)
		if err != nil {
			return lookupErr(err, "appointment")
		}
		if appt.PatientID != callerID {
			return apperror.Forbidden("payment does not belong to the caller")
		}

		payment, err := s.payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return lookupErr(err, "payment")
		}
		if err := s.cancelPending(ctx, payment); err != nil {
			return err
		}

		if appt.Status == model.AppointmentStatusPending {
			now := s.now().UTC()
			appt.Status = model.AppointmentStatusCancelled
			appt.CancelledAt = &now
			if err := s.appointments.Update(ctx, appt); err != nil {
				return storeErr(err, "appointment")
			}
			if err := s.audit.record(ctx, model.EventTypeAppointmentCancelled, eventRefs{
				user:        ref(callerID),
				appointment: ref(appt.ID),
				payment:     ref(payment.ID),
			}, map[string]any{"reason": "payment cancelled"}); err != nil {
				return err
			}
		}

		result = payment
		return nil
	})
	if err != nil {
		logFailure(s.log, "PaymentService.CancelPayment", err, zap.String("payment_id", paymentID.String()))
		return nil, err
	}
	s.audit.flush(ctx, batch)
	return result, nil
}

func (s *PaymentService) cancelPending(ctx context.Context, payment *model.Payment) error {
	if payment.Status != model.PaymentStatusPending {
		return apperror.BusinessRule("payment is %s, only PENDING payments can be cancelled", payment.Status)
	}

	payment.Status = model.PaymentStatusCancelled
	if err := s.payments.Update(ctx, payment); err != nil {
		return storeErr(err, "payment")
	}
	if err := s.audit.record(ctx, model.EventTypePaymentCancelled, eventRefs{
		appointment: ref(payment.AppointmentID),
		payment:     ref(payment.ID),
	}, nil); err != nil {
		return err
	}

	if payment.InvoiceID == nil {
		return nil
	}
	// Счёт гасим последним: если шлюз не ответил, транзакция откатится
	// и платёж останется PENDING.
	if err := s.gateway.ExpireInvoice(ctx, *payment.InvoiceID); err != nil {
		s.log.Error("failed to expire invoice",
			zap.String("invoice_id", *payment.InvoiceID),
			zap.Error(err),
		)
		return apperror.Gateway(err, "failed to expire invoice")
	}
	return nil
}

func (s *PaymentService) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, lookupErr(err, "payment")
	}
	return payment, nil
}

// GetPayment возвращает платёж владельцу записи.
func (s *PaymentService) GetPayment(ctx context.Context, callerID, paymentID uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, lookupErr(err, "payment")
	}
	appt, err := s.appointments.GetByID(ctx, payment.AppointmentID)
	if err != nil {
		return nil, lookupErr(err, "appointment")
	}
	if appt.PatientID != callerID {
		return nil, apperror.Forbidden("payment does not belong to the caller")
	}
	return payment, nil
}

// HandleNotification применяет уведомление шлюза к платежу и записи.
// Повторная доставка того же уведомления ничего не меняет.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) error {
	s.log.Info("PaymentService.HandleNotification called",
		zap.String("invoice_id", n.InvoiceID),
		zap.String("status", n.Status),
		zap.String("webhook_id", n.WebhookID),
	)

	if n.InvoiceID == "" {
		return apperror.Validation("invoice id is required")
	}

	ctx, batch := s.audit.begin(ctx)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.payments.GetByInvoiceID(ctx, n.InvoiceID)
		if err != nil {
			return lookupErr(err, "payment for invoice "+n.InvoiceID)
		}

		appt, err := s.appointments.GetByIDForUpdate(ctx, current.AppointmentID)
		if err != nil {
			return lookupErr(err, "appointment")
		}
		payment, err := s.payments.GetByIDForUpdate(ctx, current.ID)
		if err != nil {
			return lookupErr(err, "payment")
		}

		// Проверка под блокировкой: параллельная доставка того же
		// уведомления ждёт здесь и увидит запись журнала.
		key := n.DedupKey()
		seen, err := s.notifications.Exists(ctx, key)
		if err != nil {
			return apperror.Internal(err, "check notification journal")
		}
		if seen {
			s.log.Info("duplicate notification ignored", zap.String("dedup_key", key))
			return nil
		}

		if err := s.applyNotification(ctx, payment, appt, n); err != nil {
			return err
		}

		if err := s.notifications.Create(ctx, &model.PaymentNotification{
			DedupKey:   key,
			InvoiceID:  n.InvoiceID,
			Status:     n.Status,
			PaymentID:  payment.ID,
			ReceivedAt: s.now().UTC(),
		}); err != nil {
			return storeErr(err, "payment notification")
		}
		return nil
	})
	if err != nil {
		logFailure(s.log, "PaymentService.HandleNotification", err, zap.String("invoice_id", n.InvoiceID))
		return err
	}
	s.audit.flush(ctx, batch)
	return nil
}

func (s *PaymentService) applyNotification(
	ctx context.Context,
	payment *model.Payment,
	appt *model.Appointment,
	n Notification,
) error {
	status := ParseGatewayStatus(n.Status)

	var target model.PaymentStatus
	switch status {
	case GatewayStatusPaid, GatewayStatusSettled:
		target = model.PaymentStatusCompleted
	case GatewayStatusExpired:
		target = model.PaymentStatusCancelled
	case GatewayStatusFailed:
		target = model.PaymentStatusFailed
	case GatewayStatusPending:
		return nil
	case GatewayStatusUnknown:
		s.log.Warn("unknown invoice status ignored",
			zap.String("invoice_id", n.InvoiceID),
			zap.String("status", n.Status),
		)
		return nil
	default:
		return apperror.Internal(nil, "unhandled gateway status "+status.String())
	}

	if payment.Status == target {
		return nil
	}
	if payment.Status.IsTerminal() {
		s.log.Warn("notification for finished payment ignored",
			zap.String("payment_id", payment.ID.String()),
			zap.String("payment_status", string(payment.Status)),
			zap.String("gateway_status", status.String()),
		)
		return nil
	}

	if !n.Amount.IsZero() && !n.Amount.Equal(payment.Amount) {
		s.log.Warn("notification amount differs from payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("expected", payment.Amount.StringFixed(2)),
			zap.String("received", n.Amount.StringFixed(2)),
		)
	}

	payment.Status = target
	payment.InvoiceStatus = status.String()
	if n.PaymentMethod != "" {
		payment.PaymentMethod = n.PaymentMethod
	}
	if target == model.PaymentStatusCompleted {
		paidAt := s.now().UTC()
		if n.PaidAt != nil {
			paidAt = n.PaidAt.UTC()
		}
		payment.PaidAt = &paidAt
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return storeErr(err, "payment")
	}

	paymentEvent := model.EventTypePaymentCompleted
	switch target {
	case model.PaymentStatusCancelled:
		paymentEvent = model.EventTypePaymentCancelled
	case model.PaymentStatusFailed:
		paymentEvent = model.EventTypePaymentFailed
	}
	refs := eventRefs{
		user:        ref(appt.PatientID),
		appointment: ref(appt.ID),
		payment:     ref(payment.ID),
	}
	if err := s.audit.record(ctx, paymentEvent, refs, map[string]any{
		"invoice_id":     n.InvoiceID,
		"gateway_status": status.String(),
	}); err != nil {
		return err
	}

	if appt.Status != model.AppointmentStatusPending {
		s.log.Warn("appointment is not PENDING, status left as is",
			zap.String("appointment_id", appt.ID.String()),
			zap.String("appointment_status", string(appt.Status)),
			zap.String("payment_status", string(target)),
		)
		return nil
	}

	apptEvent := model.EventTypeAppointmentScheduled
	if target == model.PaymentStatusCompleted {
		appt.Status = model.AppointmentStatusScheduled
	} else {
		now := s.now().UTC()
		appt.Status = model.AppointmentStatusCancelled
		appt.CancelledAt = &now
		apptEvent = model.EventTypeAppointmentCancelled
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return storeErr(err, "appointment")
	}
	return s.audit.record(ctx, apptEvent, refs, map[string]any{"payment_status": string(target)})
}
