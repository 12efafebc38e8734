package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskWarmCache is the asynq task type that refreshes per-channel catalog
// caches ahead of their TTL.
const TaskWarmCache = "catalog:warm_cache"

type warmPayload struct {
	Channels []string `json:"channels"`
}

// NewWarmCacheTask builds the periodic cache warm task for the given channels.
func NewWarmCacheTask(channels []string) (*asynq.Task, error) {
	payload, err := json.Marshal(warmPayload{Channels: channels})
	if err != nil {
		return nil, fmt.Errorf("marshal warm payload: %w", err)
	}
	return asynq.NewTask(TaskWarmCache, payload), nil
}

// Warmer refreshes the Redis catalog caches so storefront reads rarely hit
// Postgres cold.
type Warmer struct {
	Store  storeProvider
	Cache  *Cache
	Logger zerolog.Logger
}

// HandleWarmCache is the asynq handler for TaskWarmCache. Per-channel
// failures are logged and skipped so one bad channel does not starve the rest.
func (w *Warmer) HandleWarmCache(ctx context.Context, task *asynq.Task) error {
	var payload warmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal warm payload: %w", err)
	}
	if len(payload.Channels) == 0 {
		payload.Channels = []string{""}
	}
	var lastErr error
	for _, channel := range payload.Channels {
		if err := w.warmChannel(ctx, channel); err != nil {
			w.Logger.Error().Err(err).Str("channel", channel).Msg("cache warm failed")
			lastErr = err
		}
	}
	return lastErr
}

func (w *Warmer) warmChannel(ctx context.Context, channel string) error {
	cards, err := w.Store.ListPartnerCards(ctx, channel)
	if err != nil {
		return fmt.Errorf("warm partner cards: %w", err)
	}
	if err := w.Cache.SetJSON(ctx, partnerCardsKey(channel), cards); err != nil {
		return fmt.Errorf("store partner cards: %w", err)
	}
	categories, err := w.Store.ListCategories(ctx, channel)
	if err != nil {
		return fmt.Errorf("warm categories: %w", err)
	}
	if err := w.Cache.SetJSON(ctx, categoriesKey(channel), categories); err != nil {
		return fmt.Errorf("store categories: %w", err)
	}
	w.Logger.Debug().Str("channel", channel).Int("cards", len(cards)).Int("categories", len(categories)).Msg("catalog cache warmed")
	return nil
}
