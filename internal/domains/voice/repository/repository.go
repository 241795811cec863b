package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"feastline/infras/otel"
	"feastline/infras/postgres"
	"feastline/internal/domains/voice/model"
	gDto "feastline/shared/dto"
	gRepo "feastline/shared/repository"
)

// Session stores the audit trail of voice sessions.
type Session interface {
	Insert(ctx context.Context, model model.SessionRecord) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.SessionRecord, bool, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.SessionRecord, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.SessionRecord]
}

func New(db *postgres.Connection, otel otel.Otel) Session {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.SessionRecord](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
