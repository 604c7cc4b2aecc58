package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// FeeResolver находит тариф специализации в больнице.
type FeeResolver interface {
	ResolveFee(ctx context.Context, hospitalID, specializationID uuid.UUID) (*model.HospitalDoctorFee, error)
}

type RepositoryFeeResolver struct {
	fees repository.FeeRepository
}

func NewRepositoryFeeResolver(fees repository.FeeRepository) *RepositoryFeeResolver {
	return &RepositoryFeeResolver{fees: fees}
}

func (r *RepositoryFeeResolver) ResolveFee(
	ctx context.Context,
	hospitalID, specializationID uuid.UUID,
) (*model.HospitalDoctorFee, error) {
	fee, err := r.fees.FindByHospitalAndSpecialization(ctx, hospitalID, specializationID)
	if err != nil {
		return nil, lookupErr(err, "doctor specialize")
	}
	fee.ConsultationType = normalizeConsultationType(fee.ConsultationType)
	return fee, nil
}

// CachedFeeResolver кладёт тарифы в redis. Тарифы меняются редко,
// поэтому при недоступности кэша просто идём в БД.
type CachedFeeResolver struct {
	next  FeeResolver
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedFeeResolver(next FeeResolver, c cache.Cache, ttl time.Duration, log *zap.Logger) *CachedFeeResolver {
	return &CachedFeeResolver{next: next, cache: c, ttl: ttl, log: log}
}

func (r *CachedFeeResolver) ResolveFee(
	ctx context.Context,
	hospitalID, specializationID uuid.UUID,
) (*model.HospitalDoctorFee, error) {
	key := fmt.Sprintf("fee:%s:%s", hospitalID, specializationID)

	var cached model.HospitalDoctorFee
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.log.Warn("fee cache get failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	fee, err := r.next.ResolveFee(ctx, hospitalID, specializationID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, fee, r.ttl); err != nil {
		r.log.Warn("fee cache set failed", zap.String("key", key), zap.Error(err))
	}
	return fee, nil
}

func normalizeConsultationType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
