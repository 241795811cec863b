package voice

import (
	"net/http"

	"feastline/config"
	"feastline/infras/otel"
	"feastline/internal/domains/voice/model"
	"feastline/internal/domains/voice/service"
	"feastline/shared/constant"
	gDto "feastline/shared/dto"
	"feastline/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service  service.Voice
	otel     otel.Otel
	config   *config.Config
	clock    clockwork.Clock
	upgrader websocket.Upgrader
}

func New(service service.Voice, otel otel.Otel, config *config.Config, clock clockwork.Clock) Handler {
	return Handler{
		service: service,
		otel:    otel,
		config:  config,
		clock:   clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// The calendar is embedded on owner sites; the access token scopes the session.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/voice-sessions", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetSessions)
		routerGroup.Get("/stream", handler.Stream)
		routerGroup.Get("/{id}", handler.GetSession)
		routerGroup.Post("/{id}/accept", handler.AcceptDraft)
		routerGroup.Post("/{id}/reject", handler.RejectDraft)
		routerGroup.Post("/{id}/refresh", handler.RefreshSession)
		routerGroup.Post("/{id}/close", handler.CloseSession)
	})
}

func token(request *http.Request) string {
	token, _ := request.Context().Value(constant.ContextKeyAccessToken).(string)

	return token
}

// GetSessions lists the audit trail of the caller's voice sessions.
// @Summary List voice sessions
// @Description Paginated audit records of voice sessions opened with the caller's access token.
// @Tags Voice
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetSessionsResponse] "Voice sessions"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/voice-sessions [get]
// @Security AccessToken
func (handler *Handler) GetSessions(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSessions")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.Sortable(constant.FieldCreatedAt, model.FieldOpenedAt, model.FieldStatus, model.FieldOutcome).FromRequest(request, true)

	sessions, err := handler.service.List(ctx, token(request), queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list voice sessions")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, sessions)
}

// GetSession returns the status of a voice session.
// @Summary Get voice session status
// @Description Live status of an open session, or the final state of an ended one.
// @Tags Voice
// @Produce json
// @Param id path string true "Voice session ID"
// @Success 200 {object} response.Data[model.Status] "Voice session status"
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/voice-sessions/{id} [get]
// @Security AccessToken
func (handler *Handler) GetSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	status, err := handler.service.Status(ctx, token(request), id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to get voice session status")

		response.WithError(writer, toFailure(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, status)
}

// AcceptDraft confirms the booking draft awaiting review.
// @Summary Accept booking draft
// @Description Starts committing the pending booking draft. The outcome arrives through the session status.
// @Tags Voice
// @Produce json
// @Param id path string true "Voice session ID"
// @Success 202 {object} response.Data[model.Status] "Commit started"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/voice-sessions/{id}/accept [post]
// @Security AccessToken
func (handler *Handler) AcceptDraft(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AcceptDraft")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	status, err := handler.service.Accept(ctx, token(request), id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to accept booking draft")

		response.WithError(writer, toFailure(err))

		return
	}

	scope.AddEvent("Booking draft accepted")

	response.WithJSON(writer, http.StatusAccepted, status)
}

// RejectDraft discards the booking draft awaiting review. Rejecting without a draft is a no-op.
// @Summary Reject booking draft
// @Description Discards the pending booking draft and resumes listening.
// @Tags Voice
// @Produce json
// @Param id path string true "Voice session ID"
// @Success 200 {object} response.Data[model.Status] "Draft discarded"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/voice-sessions/{id}/reject [post]
// @Security AccessToken
func (handler *Handler) RejectDraft(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectDraft")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	status, err := handler.service.Reject(ctx, token(request), id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to reject booking draft")

		response.WithError(writer, toFailure(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, status)
}

// RefreshSession reloads the catalog and availability of an open session.
// @Summary Refresh voice session data
// @Description Re-pulls time slots, booked events and the catalog, and tells the agent about the new availability.
// @Tags Voice
// @Produce json
// @Param id path string true "Voice session ID"
// @Success 200 {object} response.Data[model.Status] "Session refreshed"
// @Failure 404 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/voice-sessions/{id}/refresh [post]
// @Security AccessToken
func (handler *Handler) RefreshSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RefreshSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	status, err := handler.service.Refresh(ctx, token(request), id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to refresh voice session")

		response.WithError(writer, toFailure(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, status)
}

// CloseSession ends a voice session and releases its devices.
// @Summary Close voice session
// @Tags Voice
// @Produce json
// @Param id path string true "Voice session ID"
// @Success 200 {object} response.Message "Voice session closed"
// @Failure 404 {object} response.Error
// @Router /v1/voice-sessions/{id}/close [post]
// @Security AccessToken
func (handler *Handler) CloseSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CloseSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.Close(ctx, token(request), id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to close voice session")

		response.WithError(writer, toFailure(err))

		return
	}

	response.WithMessage(writer, http.StatusOK, "Voice session closed")
}
