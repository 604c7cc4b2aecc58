package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/config"
)

// XenditClient выставляет и гасит счета через Invoice API Xendit.
type XenditClient struct {
	baseURL         string
	apiKey          string
	invoiceDuration time.Duration
	httpClient      *http.Client
	log             *zap.Logger
}

func NewXenditClient(cfg config.XenditConfig, log *zap.Logger) *XenditClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &XenditClient{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		invoiceDuration: cfg.InvoiceTTL,
		httpClient:      &http.Client{Timeout: timeout},
		log:             log,
	}
}

type createInvoiceRequest struct {
	ExternalID      string      `json:"external_id"`
	Amount          json.Number `json:"amount"`
	PayerEmail      string      `json:"payer_email,omitempty"`
	Description     string      `json:"description"`
	InvoiceDuration int64       `json:"invoice_duration,omitempty"`
	Currency        string      `json:"currency"`
}

type invoiceResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (c *XenditClient) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	body := createInvoiceRequest{
		ExternalID:  req.ExternalID,
		Amount:      json.Number(req.Amount.StringFixed(2)),
		PayerEmail:  req.PayerEmail,
		Description: req.Description,
		Currency:    "IDR",
	}
	if c.invoiceDuration > 0 {
		body.InvoiceDuration = int64(c.invoiceDuration / time.Second)
	}

	var resp invoiceResponse
	if err := c.do(ctx, http.MethodPost, "/v2/invoices", body, &resp); err != nil {
		return nil, err
	}

	c.log.Info("XenditClient.CreateInvoice created",
		zap.String("external_id", req.ExternalID),
		zap.String("invoice_id", resp.ID),
		zap.String("status", resp.Status),
	)

	return &Invoice{ID: resp.ID, Status: resp.Status, URL: resp.InvoiceURL}, nil
}

func (c *XenditClient) ExpireInvoice(ctx context.Context, invoiceID string) error {
	path := "/invoices/" + url.PathEscape(invoiceID) + "/expire!"
	var resp invoiceResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}

	c.log.Info("XenditClient.ExpireInvoice expired",
		zap.String("invoice_id", invoiceID),
		zap.String("status", resp.Status),
	)
	return nil
}

func (c *XenditClient) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// Xendit: секретный ключ как username, пароль пустой.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xendit %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return &APIError{StatusCode: resp.StatusCode, Code: e.ErrorCode, Message: e.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
