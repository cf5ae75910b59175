package cache

import (
	"context"
	"time"

	"erp-backend/internal/repository"
)

const DashboardKey = "erp:dashboard:stats"

type DashboardCache interface {
	Get(ctx context.Context, key string) (*repository.DashboardStats, bool, error)
	Set(ctx context.Context, key string, value *repository.DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*repository.DashboardStats, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *repository.DashboardStats, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
