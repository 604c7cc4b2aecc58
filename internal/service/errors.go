package service

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/apperror"
)

// lookupErr превращает "не найдено" в NotFound, остальное в Internal.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s not found", what)
	}
	return apperror.Internal(err, "load "+what)
}

// paymentLookupErr: у записи платёж есть всегда, его отсутствие считается порчей данных.
func paymentLookupErr(err error, appointmentID uuid.UUID) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Internal(nil, "appointment "+appointmentID.String()+" has no payment")
	}
	return apperror.Internal(err, "load payment")
}

// storeErr переводит ошибку записи в БД.
func storeErr(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("%s already exists", what)
	}
	return apperror.Internal(err, "save "+what)
}

// logFailure пишет ошибку операции: ожидаемые отказы на Warn, остальное на Error.
func logFailure(log *zap.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("kind", string(apperror.KindOf(err))))
	switch apperror.KindOf(err) {
	case apperror.KindInternal, apperror.KindGateway:
		log.Error(op+" failed", fields...)
	default:
		log.Warn(op+" rejected", fields...)
	}
}
