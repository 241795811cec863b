package confirmation

import (
	"sync"

	bookingModel "feastline/internal/domains/booking/model"
	"feastline/internal/domains/voice/model"
)

// View is a copy of the machine state safe to hand to other goroutines.
type View struct {
	State     model.ConfirmationState
	Draft     *bookingModel.Draft
	Summary   *bookingModel.Summary
	LastError string
}

// Machine gates a booking draft behind an explicit human decision. It never commits on its own:
// Accept hands the draft out and the caller reports the outcome with Succeeded or Failed.
type Machine struct {
	mu        sync.Mutex
	state     model.ConfirmationState
	draft     *bookingModel.Draft
	summary   *bookingModel.Summary
	lastError string
}

func New() *Machine {
	return &Machine{state: model.ConfirmationIdle}
}

func (m *Machine) pending() bool {
	return m.draft != nil
}

// Propose stores a validated draft and waits for review. A second draft is never queued.
func (m *Machine) Propose(draft bookingModel.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending() {
		return model.ErrDraftPending
	}

	m.draft = &draft
	m.summary = nil
	m.lastError = ""
	m.state = model.ConfirmationAwaiting

	return nil
}

// Accept moves to committing and returns the draft to commit. A draft whose commit failed may be accepted again.
func (m *Machine) Accept() (bookingModel.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case model.ConfirmationAwaiting, model.ConfirmationCommitFailed:
		m.state = model.ConfirmationCommitting
		m.lastError = ""

		return *m.draft, nil
	case model.ConfirmationCommitting:
		return bookingModel.Draft{}, model.ErrCommitInProgress
	default:
		return bookingModel.Draft{}, model.ErrNoPendingDraft
	}
}

// Succeeded records a committed booking and drops the draft. It reports false when no commit was running,
// which happens when the draft was discarded while the commit was in flight.
func (m *Machine) Succeeded(confirmation bookingModel.Confirmation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != model.ConfirmationCommitting {
		return false
	}

	summary := confirmation.Summary
	m.summary = &summary
	m.draft = nil
	m.state = model.ConfirmationCommitted

	return true
}

// Failed records a commit error. The draft is kept for a retry.
func (m *Machine) Failed(err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != model.ConfirmationCommitting {
		return false
	}

	m.state = model.ConfirmationCommitFailed
	m.lastError = err.Error()

	return true
}

// Reject discards the pending draft. It reports whether a draft was discarded; without one it is a no-op.
func (m *Machine) Reject() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == model.ConfirmationCommitting {
		return false, model.ErrCommitInProgress
	}

	if !m.pending() {
		return false, nil
	}

	m.draft = nil
	m.lastError = ""
	m.state = model.ConfirmationIdle

	return true, nil
}

// Discard drops any draft whatever the state. Used on session close; nothing is committed.
func (m *Machine) Discard() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	had := m.pending()
	m.draft = nil

	if m.state != model.ConfirmationCommitted {
		m.state = model.ConfirmationIdle
	}

	return had
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := View{State: m.state, LastError: m.lastError}

	if m.draft != nil {
		draft := *m.draft
		view.Draft = &draft
	}

	if m.summary != nil {
		summary := *m.summary
		view.Summary = &summary
	}

	return view
}
