package voice

import (
	"errors"

	"feastline/internal/domains/voice/model"
	"feastline/shared/failure"
)

// toFailure gives voice session errors their HTTP meaning. Errors that already carry a code
// pass through untouched.
func toFailure(err error) error {
	var fail *failure.Failure
	if errors.As(err, &fail) {
		return err
	}

	switch {
	case errors.Is(err, model.ErrNoPendingDraft):
		return failure.Conflict(model.ErrNoPendingDraft.Error())
	case errors.Is(err, model.ErrCommitInProgress):
		return failure.Conflict(model.ErrCommitInProgress.Error())
	case errors.Is(err, model.ErrDraftPending):
		return failure.Conflict(model.ErrDraftPending.Error())
	case errors.Is(err, model.ErrSessionClosed):
		return failure.NotFound(model.ErrSessionClosed.Error())
	case errors.Is(err, model.ErrDeviceUnavailable):
		return failure.UnprocessableEntity(err.Error())
	case errors.Is(err, model.ErrConnection):
		return failure.ServiceUnavailable(err.Error())
	default:
		return err
	}
}
