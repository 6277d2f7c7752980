package repository

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type countingOrgUnits struct {
	units []domain.OrgUnit
	calls atomic.Int32
}

func (c *countingOrgUnits) Create(_ context.Context, unit *domain.OrgUnit) error {
	c.units = append(c.units, *unit)
	return nil
}

func (c *countingOrgUnits) ListAll(context.Context) ([]domain.OrgUnit, error) {
	c.calls.Add(1)
	return c.units, nil
}

func TestCachedOrgUnitRepositoryFallsBackWhenRedisUnavailable(t *testing.T) {
	source := &countingOrgUnits{units: []domain.OrgUnit{{ID: "city", Kind: domain.OrgUnitCity, Name: "Kota"}}}
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewCachedOrgUnitRepository(source, client, time.Minute, zap.NewNop())
	units, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, source.units, units)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestCachedOrgUnitRepositoryDisabledWithoutClient(t *testing.T) {
	source := &countingOrgUnits{}
	repo := NewCachedOrgUnitRepository(source, nil, time.Minute, zap.NewNop())
	assert.Same(t, source, repo)
}
