package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"feastline/infras/catalogapi"
	"feastline/infras/otel"
	"feastline/internal/domains/booking/model"
	"feastline/internal/domains/booking/model/dto"
	"feastline/shared/constant"
	"feastline/shared/failure"

	"github.com/rs/zerolog/log"
)

const pathEvents = "/events"

// Committer persists a confirmed draft through the owner's booking endpoint.
type Committer interface {
	Commit(ctx context.Context, token string, draft model.Draft) (model.Booking, error)
}

type repositoryImpl struct {
	client catalogapi.Client
	otel   otel.Otel
}

func New(client catalogapi.Client, otel otel.Otel) Committer {
	return &repositoryImpl{
		client: client,
		otel:   otel,
	}
}

func (r *repositoryImpl) Commit(ctx context.Context, token string, draft model.Draft) (res model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Commit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	var req dto.CommitRequest
	req.FromDraft(draft)

	scope.SetAttributes(map[string]any{
		"booking.date":         draft.Date,
		"booking.time_slot_id": draft.TimeSlotID,
	})

	var out dto.CommitResponse
	if err = r.client.Post(ctx, pathEvents, token, req, &out); err != nil {
		log.Error().Err(err).Str("date", draft.Date).Int64("time_slot_id", draft.TimeSlotID).Msg("failed to commit booking")

		var f *failure.Failure
		if errors.As(err, &f) {
			return res, &model.CommitError{Code: f.Code, Message: f.Message}
		}

		return res, &model.CommitError{Code: http.StatusInternalServerError, Message: fmt.Sprintf("failed to commit booking: %v", err)}
	}

	return out.ToModel(draft), nil
}
