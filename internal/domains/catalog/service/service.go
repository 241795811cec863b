package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Catalog=MockCatalogService

import (
	"context"
	"fmt"
	"time"

	"feastline/config"
	"feastline/infras/otel"
	"feastline/internal/domains/catalog/model"
	"feastline/internal/domains/catalog/repository"
	"feastline/shared"
	"feastline/shared/cache"
	"feastline/shared/constant"
	"feastline/shared/timezone"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Catalog interface {
	// Snapshot loads the owner's catalog and the booked events between from and to.
	// Static catalog entries may come from cache; booked events are always fetched.
	Snapshot(ctx context.Context, token string, from, to time.Time) (*model.Snapshot, error)
	// Invalidate drops every cached catalog entry of the owner.
	Invalidate(ctx context.Context, token string) error
}

type serviceImpl struct {
	repo  repository.Catalog
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	clock clockwork.Clock
}

func New(repo repository.Catalog, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, clock clockwork.Clock) Catalog {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		clock: clock,
	}
}

func cacheKey(token, kind string) string {
	return shared.BuildCacheKey(constant.CacheKeyPrefixCatalog, shared.HashToken(token), kind)
}

func (s *serviceImpl) Snapshot(ctx context.Context, token string, from, to time.Time) (snap *model.Snapshot, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".catalog.Snapshot")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ttl := s.cfg.Cache.TTL

	slots, err := cache.Remember(ctx, s.cache, cacheKey(token, constant.CacheKeyTimeSlots), ttl, func(ctx context.Context) ([]model.TimeSlot, error) {
		return s.repo.GetTimeSlots(ctx, token)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load time slots")

		return nil, fmt.Errorf("failed to load time slots: %w", err)
	}

	cuisines, err := cache.Remember(ctx, s.cache, cacheKey(token, constant.CacheKeyCuisines), ttl, func(ctx context.Context) ([]model.Cuisine, error) {
		return s.repo.GetCuisines(ctx, token)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load cuisines")

		return nil, fmt.Errorf("failed to load cuisines: %w", err)
	}

	categories, err := cache.Remember(ctx, s.cache, cacheKey(token, constant.CacheKeyCategories), ttl, func(ctx context.Context) ([]model.MenuCategory, error) {
		return s.repo.GetMenuCategories(ctx, token)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load menu categories")

		return nil, fmt.Errorf("failed to load menu categories: %w", err)
	}

	items, err := cache.Remember(ctx, s.cache, cacheKey(token, constant.CacheKeyMenuItems), ttl, func(ctx context.Context) ([]model.MenuItem, error) {
		return s.repo.GetMenuItems(ctx, token)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load menu items")

		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}

	from, to = timezone.StartOfDay(from), timezone.StartOfDay(to)

	events, err := s.repo.GetBookedEvents(ctx, token, from, to)
	if err != nil {
		log.Error().Err(err).Msg("failed to load booked events")

		return nil, fmt.Errorf("failed to load booked events: %w", err)
	}

	scope.SetAttributes(map[string]any{
		"catalog.time_slots": len(slots),
		"catalog.items":      len(items),
		"catalog.events":     len(events),
	})

	return model.NewSnapshot(model.SnapshotData{
		From:       from,
		To:         to,
		LoadedAt:   s.clock.Now(),
		TimeSlots:  slots,
		Events:     events,
		Cuisines:   cuisines,
		Categories: categories,
		Items:      items,
	}), nil
}

func (s *serviceImpl) Invalidate(ctx context.Context, token string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".catalog.Invalidate")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	prefix := shared.BuildCacheKey(constant.CacheKeyPrefixCatalog, shared.HashToken(token)) + ":"

	if err = s.cache.Clear(ctx, prefix); err != nil {
		log.Error().Err(err).Msg("failed to invalidate catalog cache")

		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}

	return nil
}
