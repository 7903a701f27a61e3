package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
)

// Cached view key patterns dropped when invoice data changes in bulk.
const (
	dashboardViewPattern = "views:dashboard:*"
	agingViewPattern     = "views:aging:*"
	unclearedViewPattern = "views:uncleared:*"
)

// ViewInvalidator drops cached dashboard and aging views when a
// ViewsInvalidationEvent is published. It subscribes to the event bus as a
// regular handler; single payments keep caches warm, only batch mutations
// flush them.
type ViewInvalidator struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// NewViewInvalidator creates an invalidator with its own Redis connection
func NewViewInvalidator(cfg *config.RedisConfig, logger *zap.Logger) (*ViewInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ViewInvalidator{client: client, ownsClient: true, logger: logger}, nil
}

// NewViewInvalidatorWithClient creates an invalidator with a shared Redis
// client. The caller retains ownership of the client.
func NewViewInvalidatorWithClient(client *redis.Client, logger *zap.Logger) *ViewInvalidator {
	return &ViewInvalidator{client: client, ownsClient: false, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (v *ViewInvalidator) EventTypes() []string {
	return []string{billing.EventTypeViewsInvalidation}
}

// Handle drops all cached view keys matching the known patterns
func (v *ViewInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	deleted := 0
	for _, pattern := range []string{dashboardViewPattern, agingViewPattern, unclearedViewPattern} {
		n, err := v.deleteMatching(ctx, pattern)
		if err != nil {
			return fmt.Errorf("failed to invalidate views %s: %w", pattern, err)
		}
		deleted += n
	}

	v.logger.Info("cached views invalidated",
		zap.String("event_id", event.EventID().String()),
		zap.Int("keys_deleted", deleted),
	)
	return nil
}

// deleteMatching removes keys by pattern using SCAN so large keyspaces never
// block the server the way KEYS would.
func (v *ViewInvalidator) deleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := v.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := v.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}

// Close releases the Redis connection if this invalidator owns it
func (v *ViewInvalidator) Close() error {
	if v.ownsClient {
		return v.client.Close()
	}
	return nil
}

// Ensure ViewInvalidator implements EventHandler
var _ shared.EventHandler = (*ViewInvalidator)(nil)
