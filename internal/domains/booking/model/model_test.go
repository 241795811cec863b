package model_test

import (
	"errors"
	"fmt"
	"testing"

	"feastline/internal/domains/booking/model"

	"github.com/stretchr/testify/assert"
)

func TestRejection(t *testing.T) {
	err := fmt.Errorf("propose: %w", model.Reject("2025-03-10 Lunch is already booked"))

	assert.ErrorIs(t, err, model.ErrValidationRejected)
	assert.NotErrorIs(t, err, model.ErrCommitFailed)

	var rejection *model.Rejection
	assert.True(t, errors.As(err, &rejection))
	assert.Equal(t, "2025-03-10 Lunch is already booked", rejection.Error())
}

func TestCommitError(t *testing.T) {
	err := fmt.Errorf("commit: %w", &model.CommitError{Code: 422, Message: "slot taken"})

	assert.ErrorIs(t, err, model.ErrCommitFailed)

	var commitErr *model.CommitError
	assert.True(t, errors.As(err, &commitErr))
	assert.Equal(t, "slot taken", commitErr.Error())
	assert.Equal(t, 422, commitErr.Code)
}
