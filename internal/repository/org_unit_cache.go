package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const orgUnitsCacheKey = "complaints:org_units:v1"

type cachedOrgUnitRepository struct {
	next   OrgUnitRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewCachedOrgUnitRepository serves ListAll from Redis, refilling from next on
// a miss. Redis errors are logged and the call falls through to next.
func NewCachedOrgUnitRepository(next OrgUnitRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) OrgUnitRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedOrgUnitRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedOrgUnitRepository) Create(ctx context.Context, unit *domain.OrgUnit) error {
	if err := r.next.Create(ctx, unit); err != nil {
		return err
	}
	if err := r.client.Del(ctx, orgUnitsCacheKey).Err(); err != nil {
		r.logger.Warn("org unit cache invalidation failed", zap.Error(err))
	}
	return nil
}

func (r *cachedOrgUnitRepository) ListAll(ctx context.Context) ([]domain.OrgUnit, error) {
	raw, err := r.client.Get(ctx, orgUnitsCacheKey).Bytes()
	if err == nil {
		var units []domain.OrgUnit
		if err := json.Unmarshal(raw, &units); err == nil {
			return units, nil
		}
		r.logger.Warn("discarding malformed org unit cache entry")
	} else if err != redis.Nil {
		r.logger.Warn("org unit cache read failed", zap.Error(err))
	}

	v, err, _ := r.group.Do(orgUnitsCacheKey, func() (any, error) {
		units, err := r.next.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(units); err == nil {
			if err := r.client.Set(ctx, orgUnitsCacheKey, payload, r.ttl).Err(); err != nil {
				r.logger.Warn("org unit cache write failed", zap.Error(err))
			}
		}
		return units, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.OrgUnit), nil
}
