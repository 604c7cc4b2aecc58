package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InvoiceRequest — данные для выставления счёта пациенту.
type InvoiceRequest struct {
	ExternalID  string
	Amount      decimal.Decimal
	PayerEmail  string
	Description string
}

// Invoice — счёт на стороне платёжного шлюза.
type Invoice struct {
	ID     string
	Status string
	URL    string
}

// PaymentGateway — внешний платёжный шлюз.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	ExpireInvoice(ctx context.Context, invoiceID string) error
}

// APIError — ответ шлюза с кодом не 2xx.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s: %s", e.StatusCode, e.Code, e.Message)
}
