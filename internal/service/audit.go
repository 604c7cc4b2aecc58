package service

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/apperror"
	"github.com/Leganyst/clinic-booking/internal/events"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// AuditLog пишет события в таблицу events внутри транзакции
// и публикует их в брокер только после коммита.
type AuditLog struct {
	events    repository.EventRepository
	publisher events.Publisher
	log       *zap.Logger
}

func NewAuditLog(repo repository.EventRepository, publisher events.Publisher, log *zap.Logger) *AuditLog {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuditLog{events: repo, publisher: publisher, log: log}
}

type auditBatchKey struct{}

type auditBatch struct {
	items []model.Event
}

// begin открывает пачку событий для операции верхнего уровня.
// Вложенный вызов получает nil: публикует только внешняя операция.
func (a *AuditLog) begin(ctx context.Context) (context.Context, *auditBatch) {
	if _, ok := ctx.Value(auditBatchKey{}).(*auditBatch); ok {
		return ctx, nil
	}
	b := &auditBatch{}
	return context.WithValue(ctx, auditBatchKey{}, b), b
}

type eventRefs struct {
	user        *uuid.UUID
	appointment *uuid.UUID
	payment     *uuid.UUID
}

func (a *AuditLog) record(ctx context.Context, typ model.EventType, refs eventRefs, details map[string]any) error {
	e := &model.Event{
		EventType:     typ,
		UserID:        refs.user,
		AppointmentID: refs.appointment,
		PaymentID:     refs.payment,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return apperror.Internal(err, "encode event details")
		}
		e.Details = string(raw)
	}
	if err := a.events.Create(ctx, e); err != nil {
		return storeErr(err, "event")
	}
	if b, ok := ctx.Value(auditBatchKey{}).(*auditBatch); ok {
		b.items = append(b.items, *e)
	}
	return nil
}

// flush публикует события закоммиченной операции. Ошибки брокера
// не откатывают операцию: событие уже лежит в таблице events.
func (a *AuditLog) flush(ctx context.Context, b *auditBatch) {
	if b == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, e := range b.items {
		if err := a.publisher.Publish(ctx, e); err != nil {
			a.log.Warn("failed to publish event",
				zap.String("event_id", e.ID.String()),
				zap.String("event_type", string(e.EventType)),
				zap.Error(err),
			)
		}
	}
}

func ref(id uuid.UUID) *uuid.UUID {
	return &id
}
