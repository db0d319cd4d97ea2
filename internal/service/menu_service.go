package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"manai-service/internal/models"
	"manai-service/internal/redisclient"
	"manai-service/internal/store"
	"manai-service/internal/util"
)

// ErrMenuItemWithoutPrices rejects admin writes that would leave an item
// unorderable.
var ErrMenuItemWithoutPrices = errors.New("menu item must offer at least one size and price")

// MenuService is the catalog read path (Redis in front of postgres) plus the
// admin write path.
type MenuService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(store *store.Store, cache *redisclient.Client) *MenuService {
	return &MenuService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ListMenu retrieves the full menu in name order
func (ms *MenuService) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	return ms.store.GetMenuItems(ctx)
}

// GetMenuItem retrieves one item, Redis first with a database fallback.
func (ms *MenuService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := ms.cache.GetMenuItem(ctx, id)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, redisclient.ErrCacheMiss) {
		ms.logger.Warn("Menu cache read failed, falling back to DB",
			zap.String("id", id),
			zap.Error(err))
	}
	util.MenuCacheMissesTotal.Inc()

	item, err = ms.store.GetMenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ms.cache.SetMenuItem(ctx, item); err != nil {
			ms.logger.Error("Failed to cache menu item",
				zap.String("id", item.ID),
				zap.Error(err))
		}
	}()

	return item, nil
}

// Featured returns a random sample of the menu for the homepage.
func (ms *MenuService) Featured(ctx context.Context, n int) ([]models.MenuItem, error) {
	items, err := ms.store.GetMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	return sampleMenu(items, n), nil
}

func sampleMenu(items []models.MenuItem, n int) []models.MenuItem {
	shuffled := make([]models.MenuItem, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// CreateMenuItem adds a dish to the menu
func (ms *MenuService) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if len(item.Prices) == 0 {
		return ErrMenuItemWithoutPrices
	}
	return ms.store.CreateMenuItem(ctx, item)
}

// UpdateMenuItem overwrites a dish and invalidates its cache entry
func (ms *MenuService) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if len(item.Prices) == 0 {
		return ErrMenuItemWithoutPrices
	}
	if err := ms.store.UpdateMenuItem(ctx, item); err != nil {
		return err
	}
	if err := ms.cache.DeleteMenuItem(ctx, item.ID); err != nil {
		ms.logger.Warn("Failed to invalidate menu cache", zap.String("id", item.ID), zap.Error(err))
	}
	return nil
}

// DeleteMenuItem removes a dish and invalidates its cache entry
func (ms *MenuService) DeleteMenuItem(ctx context.Context, id string) error {
	if err := ms.store.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	if err := ms.cache.DeleteMenuItem(ctx, id); err != nil {
		ms.logger.Warn("Failed to invalidate menu cache", zap.String("id", id), zap.Error(err))
	}
	return nil
}

// SyncMenuToRedis warms the cache with the whole menu at startup.
func (ms *MenuService) SyncMenuToRedis(ctx context.Context) error {
	items, err := ms.store.GetMenuItems(ctx)
	if err != nil {
		return err
	}

	for i := range items {
		if err := ms.cache.SetMenuItem(ctx, &items[i]); err != nil {
			ms.logger.Error("Failed to cache menu item",
				zap.String("id", items[i].ID),
				zap.Error(err))
		}
	}

	ms.logger.Info("Menu sync completed", zap.Int("count", len(items)))
	return nil
}
