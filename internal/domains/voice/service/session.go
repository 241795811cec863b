package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	availability "feastline/internal/domains/availability/service"
	bookingModel "feastline/internal/domains/booking/model"
	bookingService "feastline/internal/domains/booking/service"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/internal/domains/voice/agent"
	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/confirmation"
	"feastline/internal/domains/voice/model"
	"feastline/internal/domains/voice/playback"
	"feastline/shared"

	"github.com/rs/zerolog"
)

const (
	eventQueueSize   = 64
	subscriberBuffer = 8
)

const (
	feedbackAccepted = "The customer confirmed the booking on screen and it was saved with id %s. Tell them the booking is confirmed."
	feedbackFailed   = "The customer confirmed the booking but saving it failed: %s. Explain this and ask whether they want to try again."
	feedbackRejected = "The customer rejected the proposed booking on screen. Ask what they would like to change."
	feedbackRefresh  = "The availability was refreshed. Offer only these dates and time slots from now on:\n%s"
)

type eventKind int

const (
	eventInbound eventKind = iota + 1
	eventReceiveFailed
	eventPlaybackIdle
	eventCaptureFailed
	eventCommitDone
	eventAccept
	eventReject
	eventRefreshed
)

type event struct {
	kind         eventKind
	msg          agent.Inbound
	err          error
	confirmation bookingModel.Confirmation
	snapshot     *catalogModel.Snapshot
	reply        chan error
}

// Session is one voice booking conversation. Every state transition runs on a single dispatch
// loop; the receive loop, device callbacks, timers and commands only post events to it.
type Session struct {
	id        string
	tokenHash string
	token     string
	openedAt  time.Time

	conn     agent.Conn
	capture  *capture.Pipeline
	playback *playback.Scheduler
	confirm  *confirmation.Machine
	booking  bookingService.Booking
	snap     atomic.Pointer[catalogModel.Snapshot]

	commitTimeout time.Duration
	log           zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events   chan event
	done     chan struct{}
	loopDone chan struct{}

	closeOnce    sync.Once
	shutdownOnce sync.Once
	onClosed     func(*Session)

	mu        sync.Mutex
	state     model.SessionState
	lastError string
	bookingID string

	// committed is only touched on the dispatch loop.
	committed []catalogModel.BookedEvent

	subsMu  sync.Mutex
	subs    map[int]chan model.Status
	nextSub int
}

func (s *Session) ID() string {
	return s.id
}

// OwnedBy reports whether token is the access token the session was opened with.
func (s *Session) OwnedBy(token string) bool {
	return shared.HashToken(token) == s.tokenHash
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns the catalog the session currently validates against.
func (s *Session) Snapshot() *catalogModel.Snapshot {
	return s.snap.Load()
}

func (s *Session) Status() model.Status {
	view := s.confirm.View()

	s.mu.Lock()
	state, lastError := s.state, s.lastError
	s.mu.Unlock()

	status := model.Status{
		SessionID:         s.id,
		State:             state,
		CaptureState:      model.CaptureIdle,
		PlaybackState:     model.PlaybackIdle,
		ConfirmationState: view.State,
		PendingDraft:      view.Draft,
		Summary:           view.Summary,
		LastError:         lastError,
	}

	if s.capture.Active() {
		status.CaptureState = model.CaptureRecording
	}

	if s.playback.Playing() {
		status.PlaybackState = model.PlaybackPlaying
	}

	if status.LastError == "" {
		status.LastError = view.LastError
	}

	return status.WithDisplay()
}

// Subscribe streams status changes, starting with the current one. Slow readers only miss
// intermediate states. The channel is closed when the session closes or cancel is called.
func (s *Session) Subscribe() (<-chan model.Status, func()) {
	ch := make(chan model.Status, subscriberBuffer)

	s.subsMu.Lock()

	if s.subs == nil {
		s.subsMu.Unlock()
		ch <- s.Status()
		close(ch)

		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.Status()

	s.subsMu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()

			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *Session) publish() {
	status := s.Status()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		offer(ch, status)
	}
}

// offer replaces the oldest queued status when the subscriber is behind.
func offer(ch chan model.Status, status model.Status) {
	select {
	case ch <- status:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- status:
	default:
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}

	s.subs = nil
}

func (s *Session) start() {
	go s.dispatch()
	go s.receive()
}

func (s *Session) post(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) submit(ctx context.Context, kind eventKind) error {
	reply := make(chan error, 1)

	if !s.post(event{kind: kind, reply: reply}) {
		return model.ErrSessionClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return model.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

func (s *Session) receive() {
	for {
		msg, err := s.conn.Receive()
		if err != nil {
			s.post(event{kind: eventReceiveFailed, err: err})

			return
		}

		if !s.post(event{kind: eventInbound, msg: msg}) {
			return
		}

		if msg.Lifecycle == agent.LifecycleClosed {
			return
		}
	}
}

func (s *Session) dispatch() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case eventInbound:
		s.route(ev.msg)
	case eventReceiveFailed:
		s.fail(model.SessionConnectionFailed, ev.err)
	case eventPlaybackIdle:
		s.resumeCapture()
	case eventCaptureFailed:
		s.fail(model.SessionCaptureFailed, ev.err)
	case eventCommitDone:
		s.commitDone(ev.confirmation, ev.err)
	case eventAccept:
		ev.reply <- s.accept()
	case eventReject:
		ev.reply <- s.reject()
	case eventRefreshed:
		snap := ev.snapshot.WithEvents(s.committed...)
		s.snap.Store(snap)

		if !s.terminal() {
			s.say(fmt.Sprintf(feedbackRefresh, agent.AvailabilityLines(availability.ForSnapshot(snap))))
		}
	}

	s.publish()
}

func (s *Session) terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Terminal()
}

// route hands a single-payload message to exactly one handler. Malformed messages are dropped.
func (s *Session) route(msg agent.Inbound) {
	kind, err := msg.Kind()
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping agent message")

		return
	}

	if s.terminal() {
		return
	}

	switch kind {
	case agent.KindAudio:
		_, err := s.playback.Enqueue(playback.Buffer{Data: msg.Audio.Data, SampleRate: msg.Audio.SampleRate})
		if err != nil {
			s.log.Warn().Err(err).Int("bytes", len(msg.Audio.Data)).Msg("dropping agent audio")
		}
	case agent.KindFunctionCall:
		s.handleCall(*msg.Call)
	case agent.KindInterrupted:
		handles := s.playback.Interrupt()
		s.log.Debug().Int("cancelled", len(handles)).Msg("playback interrupted")
		s.resumeCapture()
	case agent.KindLifecycle:
		s.handleLifecycle(msg.Lifecycle)
	}
}

func (s *Session) handleLifecycle(lifecycle agent.Lifecycle) {
	switch lifecycle {
	case agent.LifecycleClosed:
		s.fail(model.SessionConnectionFailed, fmt.Errorf("%w: the agent closed the connection", model.ErrConnection))
	case agent.LifecycleGoAway:
		s.log.Warn().Msg("agent announced the connection will close soon")
	default:
		s.log.Trace().Str("lifecycle", string(lifecycle)).Msg("agent lifecycle event")
	}
}

func (s *Session) handleCall(call agent.FunctionCall) {
	log := s.log.With().Str("call_id", call.ID).Str("function", call.Name).Logger()

	if call.Name != agent.ProposeBookingName {
		log.Warn().Msg("ignoring unknown function call")
		s.respond(call, map[string]any{"status": "ignored", "error": "ignored: unknown function"})

		return
	}

	if s.confirm.View().Draft != nil {
		s.respond(call, rejected(model.ErrDraftPending.Error()))

		return
	}

	snap := s.snap.Load()

	draft, err := s.booking.Propose(s.ctx, call.Args, snap)
	if err != nil {
		var rejection *bookingModel.Rejection
		if errors.As(err, &rejection) {
			log.Info().Str("reason", rejection.Reason).Msg("booking proposal rejected")
			s.respond(call, rejected(rejection.Reason))

			return
		}

		log.Error().Err(err).Msg("failed to validate booking proposal")
		s.respond(call, rejected("the booking could not be checked, please try again"))

		return
	}

	if err := s.capture.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to halt capture for review")
	}

	if err := s.confirm.Propose(draft); err != nil {
		s.respond(call, rejected(err.Error()))
		s.resumeCapture()

		return
	}

	log.Info().Str("date", draft.Date).Int64("time_slot_id", draft.TimeSlotID).Msg("booking draft awaiting review")

	s.respond(call, map[string]any{
		"status":  "awaiting_customer_confirmation",
		"message": "The draft is shown to the customer. Do not say it is confirmed; wait until you are told the outcome.",
	})
}

func rejected(reason string) map[string]any {
	return map[string]any{"status": "rejected", "error": reason}
}

func (s *Session) respond(call agent.FunctionCall, result map[string]any) {
	err := s.conn.SendToolResponse(s.ctx, agent.ToolResponse{CallID: call.ID, Name: call.Name, Result: result})
	if err != nil {
		s.sendFailed(err)
	}
}

func (s *Session) say(text string) {
	if err := s.conn.SendText(s.ctx, text); err != nil {
		s.sendFailed(err)
	}
}

func (s *Session) sendFailed(err error) {
	if errors.Is(err, model.ErrConnection) {
		s.fail(model.SessionConnectionFailed, err)

		return
	}

	s.log.Warn().Err(err).Msg("failed to send to agent")
}

// resumeCapture restarts listening unless a draft is under review or being committed.
func (s *Session) resumeCapture() {
	if s.terminal() {
		return
	}

	switch s.confirm.View().State {
	case model.ConfirmationAwaiting, model.ConfirmationCommitting:
		return
	}

	if err := s.capture.Start(s.ctx); err != nil {
		s.fail(model.SessionCaptureFailed, err)
	}
}

func (s *Session) accept() error {
	if s.terminal() {
		return model.ErrSessionClosed
	}

	draft, err := s.confirm.Accept()
	if err != nil {
		return err //nolint:wrapcheck
	}

	snap := s.snap.Load()

	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.commitTimeout)
		defer cancel()

		confirmation, err := s.booking.Commit(ctx, s.token, draft, snap)
		s.post(event{kind: eventCommitDone, confirmation: confirmation, err: err})
	}()

	return nil
}

func (s *Session) commitDone(confirmation bookingModel.Confirmation, err error) {
	if err != nil {
		// The endpoint's own message is what the customer sees.
		reason := err

		var commitErr *bookingModel.CommitError
		if errors.As(err, &commitErr) {
			reason = commitErr
		}

		if !s.confirm.Failed(reason) {
			return
		}

		s.log.Warn().Err(err).Msg("booking commit failed")
		s.resumeCapture()
		s.say(fmt.Sprintf(feedbackFailed, reason.Error()))

		return
	}

	if !s.confirm.Succeeded(confirmation) {
		return
	}

	s.mu.Lock()
	s.bookingID = confirmation.Booking.ID
	s.mu.Unlock()

	// The booking is now an event of its own; later proposals must see its slot as taken.
	s.committed = append(s.committed, bookedEvent(confirmation))
	s.snap.Store(s.snap.Load().WithEvents(s.committed...))

	s.log.Info().Str("booking_id", confirmation.Booking.ID).Msg("booking committed")
	s.say(fmt.Sprintf(feedbackAccepted, confirmation.Booking.ID))
}

func bookedEvent(confirmation bookingModel.Confirmation) catalogModel.BookedEvent {
	id, _ := strconv.ParseInt(confirmation.Booking.ID, 10, 64)

	return catalogModel.BookedEvent{
		ID:           id,
		Date:         confirmation.Booking.Date,
		TimeSlotID:   confirmation.Booking.TimeSlotID,
		Name:         confirmation.Summary.EventName,
		CustomerName: confirmation.Summary.CustomerName,
	}
}

func (s *Session) reject() error {
	if s.terminal() {
		return model.ErrSessionClosed
	}

	discarded, err := s.confirm.Reject()
	if err != nil || !discarded {
		return err //nolint:wrapcheck
	}

	s.log.Info().Msg("booking draft rejected")
	s.resumeCapture()
	s.say(feedbackRejected)

	return nil
}

// Accept commits the pending draft in the background. The outcome arrives as a status change.
func (s *Session) Accept(ctx context.Context) error {
	return s.submit(ctx, eventAccept)
}

// Reject discards the pending draft. Without one it does nothing.
func (s *Session) Reject(ctx context.Context) error {
	return s.submit(ctx, eventReject)
}

// swapSnapshot installs a newer catalog and tells the agent about the new availability.
// A proposal being validated keeps the snapshot it loaded.
func (s *Session) swapSnapshot(snap *catalogModel.Snapshot) error {
	if !s.post(event{kind: eventRefreshed, snapshot: snap}) {
		return model.ErrSessionClosed
	}

	return nil
}

// fail moves the session to a terminal failure state and releases its resources.
func (s *Session) fail(state model.SessionState, err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()

		return
	}

	s.state = state
	s.lastError = err.Error()
	s.mu.Unlock()

	s.log.Error().Err(err).Str("state", string(state)).Msg("voice session failed")
	s.cancel()
	s.shutdown()
}

// shutdown stops capture, cancels playback, closes the connection and discards any draft, in
// that order. Each step runs even when an earlier one fails.
func (s *Session) shutdown() {
	s.shutdownOnce.Do(func() {
		if err := s.capture.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop capture")
		}

		s.playback.Interrupt()

		if err := s.conn.Close(); err != nil {
			s.log.Warn().Err(err).Msg("failed to close agent connection")
		}

		if s.confirm.Discard() {
			s.log.Info().Msg("discarded pending booking draft")
		}
	})
}

// Close ends the session. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		<-s.loopDone

		s.mu.Lock()
		if !s.state.Terminal() {
			s.state = model.SessionClosed
		}
		s.mu.Unlock()

		s.shutdown()
		s.publish()
		s.closeSubscribers()

		s.log.Info().Msg("voice session closed")

		if s.onClosed != nil {
			s.onClosed(s)
		}
	})
}

func (s *Session) closure(now time.Time) model.SessionClosure {
	s.mu.Lock()
	defer s.mu.Unlock()

	closure := model.SessionClosure{
		Status:   string(s.state),
		Outcome:  string(model.OutcomeNoBooking),
		ClosedAt: &now,
	}

	switch {
	case s.bookingID != "":
		bookingID := s.bookingID
		closure.Outcome = string(model.OutcomeCommitted)
		closure.BookingID = &bookingID
	case s.state == model.SessionCaptureFailed, s.state == model.SessionConnectionFailed:
		closure.Outcome = string(model.OutcomeFailed)
	}

	if s.lastError != "" {
		lastError := s.lastError
		closure.LastError = &lastError
	}

	return closure
}
