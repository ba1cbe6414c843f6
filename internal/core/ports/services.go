package ports

import (
	"context"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// EventPublisher publishes rectangle set changes to a message broker.
type EventPublisher interface {
	PublishSetEvent(ctx context.Context, event *domain.SetEvent) error
}

// EventSubscriber subscribes to rectangle set changes.
type EventSubscriber interface {
	SubscribeSetEvents(ctx context.Context, handler func(ctx context.Context, event *domain.SetEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TileSource fetches 3D tiles by quadtree name.
type TileSource interface {
	Fetch(ctx context.Context, name string) (*domain.TileInfo, error)
}

// SurveyStarter launches tile surveys.
type SurveyStarter interface {
	StartSurvey(ctx context.Context, name string, level int, area domain.Rectangle) (runID string, err error)
}
