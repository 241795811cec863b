package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"feastline/infras/otel"
	"feastline/internal/domains/availability/model"
	catalogService "feastline/internal/domains/catalog/service"
	"feastline/shared/constant"
	"feastline/shared/failure"
	"feastline/shared/timezone"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Availability interface {
	// Month returns the availability of every day of month (YYYY-MM). An empty month means the current one.
	Month(ctx context.Context, token, month string) ([]model.DayAvailability, error)
}

type serviceImpl struct {
	catalog catalogService.Catalog
	otel    otel.Otel
	clock   clockwork.Clock
}

func New(catalog catalogService.Catalog, otel otel.Otel, clock clockwork.Clock) Availability {
	return &serviceImpl{
		catalog: catalog,
		otel:    otel,
		clock:   clock,
	}
}

func (s *serviceImpl) Month(ctx context.Context, token, month string) (res []model.DayAvailability, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Month")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	anchor := timezone.ToAppTime(s.clock.Now())
	if month != constant.Empty {
		anchor, err = timezone.Parse(constant.MonthFormat, month)
		if err != nil {
			return nil, failure.BadRequestFromString("month must be formatted as YYYY-MM") // nolint:wrapcheck
		}
	}

	first, last := timezone.MonthBounds(anchor)

	snap, err := s.catalog.Snapshot(ctx, token, first, last)
	if err != nil {
		log.Error().Err(err).Str("month", month).Msg("failed to load catalog snapshot")

		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}

	return ForSnapshot(snap), nil
}
