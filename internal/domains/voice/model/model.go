package model

import (
	"errors"
	"time"

	bookingModel "feastline/internal/domains/booking/model"
	"feastline/shared/model"
)

const (
	TableName  = "voice_sessions"
	EntityName = "voice_session"

	FieldID              = "id"
	FieldAccessTokenHash = "access_token_hash"
	FieldStatus          = "status"
	FieldOutcome         = "outcome"
	FieldOpenedAt        = "opened_at"
)

var (
	ErrDeviceUnavailable  = errors.New("audio device unavailable")
	ErrConnection         = errors.New("agent connection failed")
	ErrValidationRejected = bookingModel.ErrValidationRejected
	ErrCommitFailed       = bookingModel.ErrCommitFailed
	ErrProtocolAnomaly    = errors.New("protocol anomaly")
	ErrNoPendingDraft     = errors.New("no booking draft is awaiting confirmation")
	ErrDraftPending       = errors.New("a booking draft is already awaiting confirmation")
	ErrCommitInProgress   = errors.New("the booking is being committed")
	ErrSessionClosed      = errors.New("voice session is closed")
)

type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureRecording CaptureState = "recording"
)

type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackPlaying PlaybackState = "playing"
)

type ConfirmationState string

const (
	ConfirmationIdle         ConfirmationState = "idle"
	ConfirmationAwaiting     ConfirmationState = "awaiting-human-review"
	ConfirmationCommitting   ConfirmationState = "committing"
	ConfirmationCommitted    ConfirmationState = "committed"
	ConfirmationCommitFailed ConfirmationState = "commit-failed"
)

type SessionState string

const (
	SessionOpen             SessionState = "open"
	SessionCaptureFailed    SessionState = "capture-failed"
	SessionConnectionFailed SessionState = "connection-failed"
	SessionClosed           SessionState = "closed"
)

// Terminal reports whether the session can no longer talk to the customer.
func (s SessionState) Terminal() bool {
	return s != SessionOpen
}

const (
	DisplayListening = "listening"
	DisplaySpeaking  = "speaking"
	DisplayAwaiting  = "awaiting your confirmation"
	DisplayConfirmed = "booking confirmed"
	DisplayError     = "error: "
)

// Status is what the display layer renders for a voice session.
type Status struct {
	SessionID         string                `json:"session_id"`
	State             SessionState          `json:"state"`
	CaptureState      CaptureState          `json:"capture_state"`
	PlaybackState     PlaybackState         `json:"playback_state"`
	ConfirmationState ConfirmationState     `json:"confirmation_state"`
	PendingDraft      *bookingModel.Draft   `json:"pending_draft"`
	Summary           *bookingModel.Summary `json:"summary,omitempty"`
	LastError         string                `json:"last_error,omitempty"`
	Display           string                `json:"display"`
}

// WithDisplay fills Display from the other fields. Errors win over everything, then the
// confirmation flow, then audio activity.
func (s Status) WithDisplay() Status {
	switch {
	case s.State == SessionCaptureFailed, s.State == SessionConnectionFailed:
		s.Display = DisplayError + s.LastError
	case s.State == SessionClosed:
		s.Display = DisplayError + ErrSessionClosed.Error()
	case s.ConfirmationState == ConfirmationCommitFailed:
		s.Display = DisplayError + s.LastError
	case s.ConfirmationState == ConfirmationAwaiting, s.ConfirmationState == ConfirmationCommitting:
		s.Display = DisplayAwaiting
	case s.ConfirmationState == ConfirmationCommitted && s.PlaybackState != PlaybackPlaying:
		s.Display = DisplayConfirmed
	case s.PlaybackState == PlaybackPlaying:
		s.Display = DisplaySpeaking
	default:
		s.Display = DisplayListening
	}

	return s
}

type Outcome string

const (
	OutcomeInProgress Outcome = "in-progress"
	OutcomeCommitted  Outcome = "committed"
	OutcomeNoBooking  Outcome = "no-booking"
	OutcomeFailed     Outcome = "failed"
)

// SessionRecord is the audit row of one voice session. Draft contents are never stored.
type SessionRecord struct {
	ID              string     `db:"id"`
	AccessTokenHash string     `db:"access_token_hash"`
	Status          string     `db:"status"`
	Outcome         string     `db:"outcome"`
	BookingID       *string    `db:"booking_id"`
	LastError       *string    `db:"last_error"`
	OpenedAt        time.Time  `db:"opened_at"`
	ClosedAt        *time.Time `db:"closed_at"`
	model.Metadata
}

// SessionClosure is the update applied to a SessionRecord when its session ends.
type SessionClosure struct {
	Status    string     `db:"status"`
	Outcome   string     `db:"outcome"`
	BookingID *string    `db:"booking_id"`
	LastError *string    `db:"last_error"`
	ClosedAt  *time.Time `db:"closed_at"`
}
