package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/service"
)

const (
	HeaderCallbackToken = "X-Callback-Token"
	HeaderWebhookID     = "Webhook-Id"

	maxBodyBytes   = 1 << 20
	processTimeout = 10 * time.Second
)

// NotificationHandler применяет уведомление шлюза.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n service.Notification) error
}

// InvoiceCallback — тело уведомления Xendit о счёте.
type InvoiceCallback struct {
	ID            string          `json:"id" validate:"required"`
	ExternalID    string          `json:"external_id"`
	Status        string          `json:"status" validate:"required"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        *time.Time      `json:"paid_at"`
}

var validate = validator.New()

type Handler struct {
	payments NotificationHandler
	token    string
	log      *zap.Logger
}

func NewHandler(payments NotificationHandler, callbackToken string, log *zap.Logger) *Handler {
	return &Handler{payments: payments, token: callbackToken, log: log}
}

// XenditInvoice принимает уведомление о счёте. Код ответа решает, будет ли
// шлюз повторять доставку: на 2xx не повторяет, на 5xx повторяет.
func (h *Handler) XenditInvoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !h.authorized(r.Header.Get(HeaderCallbackToken)) {
		h.log.Warn("invoice callback with invalid token", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid callback token")
		return
	}

	var body InvoiceCallback
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.log.Warn("failed to parse invoice callback", zap.Error(err))
		writeError(w, http.StatusBadRequest, "cannot parse request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "id and status are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), processTimeout)
	defer cancel()

	err := h.payments.HandleNotification(ctx, service.Notification{
		WebhookID:     r.Header.Get(HeaderWebhookID),
		InvoiceID:     body.ID,
		ExternalID:    body.ExternalID,
		Status:        body.Status,
		PaymentMethod: body.PaymentMethod,
		Amount:        body.Amount,
		PaidAt:        body.PaidAt,
	})
	if err != nil {
		code := apperror.HTTPStatus(apperror.KindOf(err))
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusServiceUnavailable
		}
		h.log.Error("failed to process invoice callback",
			zap.String("invoice_id", body.ID),
			zap.String("status", body.Status),
			zap.Int("http_status", code),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		writeError(w, code, apperror.Message(err))
		return
	}

	h.log.Info("invoice callback processed",
		zap.String("invoice_id", body.ID),
		zap.String("status", body.Status),
		zap.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) authorized(got string) bool {
	if h.token == "" {
		// Токен не задан только в development.
		return true
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
