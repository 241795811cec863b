package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"feastline/infras/catalogapi"
	"feastline/infras/otel"
	"feastline/internal/domains/catalog/model"
	"feastline/shared/constant"
	"feastline/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	pathTimeSlots      = "/time-slots"
	pathEvents         = "/events"
	pathCuisines       = "/cuisines"
	pathMenuCategories = "/menus"
	pathMenuItems      = "/menu-items"
)

type Catalog interface {
	GetTimeSlots(ctx context.Context, token string) ([]model.TimeSlot, error)
	GetBookedEvents(ctx context.Context, token string, from, to time.Time) ([]model.BookedEvent, error)
	GetCuisines(ctx context.Context, token string) ([]model.Cuisine, error)
	GetMenuCategories(ctx context.Context, token string) ([]model.MenuCategory, error)
	GetMenuItems(ctx context.Context, token string) ([]model.MenuItem, error)
}

type repositoryImpl struct {
	client catalogapi.Client
	otel   otel.Otel
}

func New(client catalogapi.Client, otel otel.Otel) Catalog {
	return &repositoryImpl{
		client: client,
		otel:   otel,
	}
}

func getList[T any](ctx context.Context, r *repositoryImpl, op, path, token string, query url.Values) (res []T, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+"."+op)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("catalog.path", path)

	if err = r.client.Get(ctx, path, token, query, &res); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to load catalog data")

		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if res == nil {
		res = []T{}
	}

	return res, nil
}

func (r *repositoryImpl) GetTimeSlots(ctx context.Context, token string) ([]model.TimeSlot, error) {
	return getList[model.TimeSlot](ctx, r, "GetTimeSlots", pathTimeSlots, token, nil)
}

func (r *repositoryImpl) GetBookedEvents(ctx context.Context, token string, from, to time.Time) ([]model.BookedEvent, error) {
	query := url.Values{
		constant.RequestParamFrom: {timezone.DateKey(from)},
		constant.RequestParamTo:   {timezone.DateKey(to)},
	}

	events, err := getList[model.BookedEvent](ctx, r, "GetBookedEvents", pathEvents, token, query)
	if err != nil {
		return nil, err
	}

	for i := range events {
		events[i].Date = normalizeDate(events[i].Date)
	}

	return events, nil
}

func (r *repositoryImpl) GetCuisines(ctx context.Context, token string) ([]model.Cuisine, error) {
	return getList[model.Cuisine](ctx, r, "GetCuisines", pathCuisines, token, nil)
}

func (r *repositoryImpl) GetMenuCategories(ctx context.Context, token string) ([]model.MenuCategory, error) {
	return getList[model.MenuCategory](ctx, r, "GetMenuCategories", pathMenuCategories, token, nil)
}

func (r *repositoryImpl) GetMenuItems(ctx context.Context, token string) ([]model.MenuItem, error) {
	return getList[model.MenuItem](ctx, r, "GetMenuItems", pathMenuItems, token, nil)
}

// normalizeDate accepts either a civil date or a full timestamp and returns the civil date.
func normalizeDate(value string) string {
	if len(value) <= len(constant.CivilDateFormat) {
		return value
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value[:len(constant.CivilDateFormat)]
	}

	return timezone.DateKey(t)
}
