package router

import (
	"feastline/internal/handlers/availability"
	"feastline/internal/handlers/voice"
	"feastline/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Availability availability.Handler
	Voice        voice.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Access         middleware.Access
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.Access.AccessToken)

		r.DomainHandlers.Availability.Router(routerGroup)
		r.DomainHandlers.Voice.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, access middleware.Access) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Access:         access,
	}
}
