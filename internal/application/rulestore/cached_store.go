package rulestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CachedStore is a read-through RuleStore. Cache failures never fail a lookup.
type CachedStore struct {
	log   *zap.Logger
	store ports.RuleStore
	cache ports.RuleCache
	ttl   time.Duration
}

var _ ports.RuleStore = (*CachedStore)(nil)

func NewCachedStore(log *zap.Logger, store ports.RuleStore, cache ports.RuleCache, ttl time.Duration) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}

	return &CachedStore{
		log:   log,
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func() (T, error)) (T, error) {
	const op = "rulestore.readThrough"
	logger := s.log.With(zap.String("op", op), zap.String("key", key))
	span := trace.SpanFromContext(ctx)

	if s.cache != nil {
		var cached T
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			span.AddEvent("rules.cache.hit")
			return cached, nil
		}
		if errors.Is(err, derr.ErrCacheMiss) {
			logger.Debug("rule cache miss")
			span.AddEvent("rules.cache.miss")
		} else {
			logger.Warn("rule cache read failed", zap.Error(err))
			span.RecordError(err)
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
			logger.Warn("rule cache write failed", zap.Error(err))
			span.RecordError(err)
		}
	}
	return value, nil
}

func dayKey(date time.Time) string {
	if date.IsZero() {
		return "any"
	}
	return date.Format("20060102")
}

func (s *CachedStore) ReissueSequences(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) ([]models.ReissueSequence, error) {
	key := fmt.Sprintf("t988:%s:%d:%s", vendor, itemNo, dayKey(date))
	return readThrough(ctx, s, key, func() ([]models.ReissueSequence, error) {
		return s.store.ReissueSequences(ctx, vendor, itemNo, date)
	})
}

func (s *CachedStore) CarrierApplications(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.CarrierApplicationInfo, error) {
	key := fmt.Sprintf("t990:%s:%d", vendor, itemNo)
	return readThrough(ctx, s, key, func() ([]models.CarrierApplicationInfo, error) {
		return s.store.CarrierApplications(ctx, vendor, itemNo)
	})
}

func (s *CachedStore) GeoRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.GeoRuleItem, error) {
	key := fmt.Sprintf("t995:%s:%d", vendor, itemNo)
	return readThrough(ctx, s, key, func() ([]models.GeoRuleItem, error) {
		return s.store.GeoRuleItems(ctx, vendor, itemNo)
	})
}

func (s *CachedStore) TSIInfo(ctx context.Context, tsi int) (models.TSIInfo, error) {
	return readThrough(ctx, s, fmt.Sprintf("tsi:%d", tsi), func() (models.TSIInfo, error) {
		return s.store.TSIInfo(ctx, tsi)
	})
}

func (s *CachedStore) DateOverrideRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.DateOverrideRuleItem, error) {
	key := fmt.Sprintf("t994:%s:%d", vendor, itemNo)
	return readThrough(ctx, s, key, func() ([]models.DateOverrideRuleItem, error) {
		return s.store.DateOverrideRuleItems(ctx, vendor, itemNo)
	})
}

func (s *CachedStore) VoluntaryChanges(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) (models.VoluntaryChangesInfo, error) {
	key := fmt.Sprintf("r3:%s:%d:%s", vendor, itemNo, dayKey(date))
	return readThrough(ctx, s, key, func() (models.VoluntaryChangesInfo, error) {
		return s.store.VoluntaryChanges(ctx, vendor, itemNo, date)
	})
}
