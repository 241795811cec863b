//go:build wireinject
// +build wireinject

package di

import (
	"feastline/config"
	"feastline/infras/catalogapi"
	"feastline/infras/genai"
	"feastline/infras/kafka"
	"feastline/infras/otel"
	"feastline/infras/postgres"
	"feastline/infras/redis"
	"feastline/shared/cache"
	"feastline/transport/http"
	"feastline/transport/http/middleware"
	"feastline/transport/http/router"

	availabilityService "feastline/internal/domains/availability/service"
	bookingRepository "feastline/internal/domains/booking/repository"
	bookingService "feastline/internal/domains/booking/service"
	catalogRepository "feastline/internal/domains/catalog/repository"
	catalogService "feastline/internal/domains/catalog/service"
	"feastline/internal/domains/voice/agent"
	voiceRepository "feastline/internal/domains/voice/repository"
	voiceService "feastline/internal/domains/voice/service"
	availabilityHandler "feastline/internal/handlers/availability"
	voiceHandler "feastline/internal/handlers/voice"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
	catalogapi.New,
	genai.New,
	provideClock,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAccessMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var catalogDomain = wire.NewSet(
	catalogRepository.New,
	catalogService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var voiceDomain = wire.NewSet(
	agent.NewGeminiDialer,
	voiceRepository.New,
	voiceService.New,
)

var domains = wire.NewSet(
	catalogDomain,
	bookingDomain,
	availabilityService.New,
	voiceDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	availabilityHandler.New,
	voiceHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

// InitializeKiosk builds the voice service alone, for sessions on local devices.
func InitializeKiosk() voiceService.Voice {
	wire.Build(
		configurations,
		infrastructures,
		sharedHelpers,
		domains,
	)

	return nil
}
