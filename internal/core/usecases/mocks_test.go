package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// --- Mock RectangleSetRepository ---

type mockSetRepo struct {
	upsertFn       func(ctx context.Context, set *domain.RectangleSet) error
	getFn          func(ctx context.Context, name string) (*domain.RectangleSet, error)
	listFn         func(ctx context.Context) ([]domain.SetSummary, error)
	deleteFn       func(ctx context.Context, name string) error
	intersectingFn func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error)
}

func (m *mockSetRepo) Upsert(ctx context.Context, set *domain.RectangleSet) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, set)
	}
	return nil
}

func (m *mockSetRepo) Get(ctx context.Context, name string) (*domain.RectangleSet, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSetRepo) List(ctx context.Context) ([]domain.SetSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSetRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockSetRepo) Intersecting(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error) {
	if m.intersectingFn != nil {
		return m.intersectingFn(ctx, b, limit)
	}
	return nil, nil
}

// --- Mock CacheService ---

var errMiss = errors.New("miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return b, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.SetEvent
	err    error
}

func (p *mockPublisher) PublishSetEvent(ctx context.Context, event *domain.SetEvent) error {
	p.events = append(p.events, *event)
	return p.err
}

// --- Mock SurveyStarter ---

type mockStarter struct {
	startFn func(ctx context.Context, name string, level int, area domain.Rectangle) (string, error)
}

func (m *mockStarter) StartSurvey(ctx context.Context, name string, level int, area domain.Rectangle) (string, error) {
	if m.startFn != nil {
		return m.startFn(ctx, name, level, area)
	}
	return "run-1", nil
}
