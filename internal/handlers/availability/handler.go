package availability

import (
	"net/http"

	"feastline/infras/otel"
	"feastline/internal/domains/availability/service"
	"feastline/shared/constant"
	"feastline/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/availability", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetMonth)
	})
}

// GetMonth returns the availability of every day of a month.
// @Summary Get month availability
// @Description Recompute the availability of every day of a month from the current time slots and booked events.
// @Tags Availability
// @Produce json
// @Param month query string false "Month as YYYY-MM, defaults to the current month"
// @Success 200 {object} response.Data[[]model.DayAvailability] "Availability per day"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/availability [get]
// @Security AccessToken
func (handler *Handler) GetMonth(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMonth")
	defer scope.End()

	token, _ := ctx.Value(constant.ContextKeyAccessToken).(string)
	month := request.URL.Query().Get(constant.RequestParamMonth)

	days, err := handler.service.Month(ctx, token, month)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("month", month).Msg("failed to get month availability")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Month availability computed")

	response.WithJSON(writer, http.StatusOK, days)
}
