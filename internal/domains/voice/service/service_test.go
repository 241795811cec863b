package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"feastline/config"
	otelMocks "feastline/infras/otel/mocks"
	bookingMocks "feastline/internal/domains/booking/mocks"
	bookingModel "feastline/internal/domains/booking/model"
	catalogMocks "feastline/internal/domains/catalog/mocks"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/internal/domains/voice/agent"
	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/mocks"
	"feastline/internal/domains/voice/model"
	"feastline/internal/domains/voice/playback"
	"feastline/internal/domains/voice/service"
	gDto "feastline/shared/dto"
	"feastline/shared/failure"
	"feastline/shared/timezone"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	token   = "owner-token"
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeConn struct {
	inbound   chan agent.Inbound
	broken    chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	frames    int
	texts     []string
	responses []agent.ToolResponse
	closes    int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan agent.Inbound, 16),
		broken:  make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) SendAudio(_ context.Context, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++

	return nil
}

func (c *fakeConn) SendText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.texts = append(c.texts, text)

	return nil
}

func (c *fakeConn) SendToolResponse(_ context.Context, resp agent.ToolResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses = append(c.responses, resp)

	return nil
}

func (c *fakeConn) Receive() (agent.Inbound, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case err := <-c.broken:
		return agent.Inbound{}, err
	case <-c.closed:
		return agent.Inbound{}, fmt.Errorf("%w: use of closed connection", model.ErrConnection)
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.closed) })

	return nil
}

func (c *fakeConn) push(msg agent.Inbound) {
	c.inbound <- msg
}

func (c *fakeConn) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.texts...)
}

func (c *fakeConn) Responses() []agent.ToolResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]agent.ToolResponse(nil), c.responses...)
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closes
}

type fakeDevice struct {
	mu     sync.Mutex
	cb     *capture.Callbacks
	opens  int
	closes int
}

func (d *fakeDevice) Format() capture.Format {
	return capture.Format{SampleRate: 16000, Channels: 1, Encoding: capture.EncodingS16LE}
}

func (d *fakeDevice) Open(cb capture.Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opens++
	d.cb = &cb

	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closes++

	return nil
}

func (d *fakeDevice) callbacks() capture.Callbacks {
	d.mu.Lock()
	defer d.mu.Unlock()

	return *d.cb
}

func (d *fakeDevice) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.opens, d.closes
}

type fakeSink struct {
	mu        sync.Mutex
	scheduled []playback.Handle
	cancelled []playback.Handle
}

func (s *fakeSink) Schedule(h playback.Handle, _ time.Time, _ playback.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduled = append(s.scheduled, h)

	return nil
}

func (s *fakeSink) Cancel(handles []playback.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = append(s.cancelled, handles...)
}

func (s *fakeSink) Cancelled() []playback.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]playback.Handle(nil), s.cancelled...)
}

type harness struct {
	clock   *clockwork.FakeClock
	conn    *fakeConn
	device  *fakeDevice
	sink    *fakeSink
	catalog *catalogMocks.MockCatalogService
	booking *bookingMocks.MockBookingService
	repo    *mocks.MockSession
	dialer  *mocks.MockDialer
	svc     service.Voice
	snap    *catalogModel.Snapshot
	updates chan map[string]any
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Voice.CaptureSampleRate = 16000
	cfg.Voice.CaptureFrameMillis = 20
	cfg.Voice.CaptureQueueSize = 16
	cfg.Voice.MaxDeviceErrors = 3
	cfg.Voice.CommitTimeoutSecs = 5

	from, err := timezone.ParseDate("2025-03-01")
	require.NoError(t, err)
	to, err := timezone.ParseDate("2025-03-31")
	require.NoError(t, err)

	h := &harness{
		clock:   clockwork.NewFakeClockAt(time.Date(2025, 3, 5, 10, 0, 0, 0, timezone.GetLocation())),
		conn:    newFakeConn(),
		device:  &fakeDevice{},
		sink:    &fakeSink{},
		catalog: catalogMocks.NewMockCatalogService(ctrl),
		booking: bookingMocks.NewMockBookingService(ctrl),
		repo:    mocks.NewMockSession(ctrl),
		dialer:  mocks.NewMockDialer(ctrl),
		updates: make(chan map[string]any, 4),
		snap: catalogModel.NewSnapshot(catalogModel.SnapshotData{
			From:      from,
			To:        to,
			TimeSlots: []catalogModel.TimeSlot{{ID: 5, Name: "Lunch", Weekdays: []int{0, 2}}},
			Cuisines:  []catalogModel.Cuisine{{ID: 1, Name: "Levantine"}},
		}),
	}

	h.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	h.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req map[string]any, _ gDto.FilterGroup) error {
			h.updates <- req

			return nil
		}).AnyTimes()

	h.svc = service.New(cfg, h.dialer, h.catalog, h.booking, h.repo, otelMocks.NewOtel(), h.clock)

	return h
}

func (h *harness) open(t *testing.T) *service.Session {
	t.Helper()

	h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(h.snap, nil)
	h.dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(h.conn, nil)

	sess, err := h.svc.Open(context.Background(), service.OpenRequest{AccessToken: token, Capture: h.device, Speaker: h.sink})
	require.NoError(t, err)

	t.Cleanup(sess.Close)

	return sess
}

func proposal(id string) agent.Inbound {
	return agent.Inbound{Call: &agent.FunctionCall{
		ID:   id,
		Name: agent.ProposeBookingName,
		Args: map[string]any{"date": "2025-03-10", "time_slot_id": 5.0},
	}}
}

func draft() bookingModel.Draft {
	return bookingModel.Draft{
		CustomerName: "Layla Haddad",
		EventName:    "Engagement dinner",
		Date:         "2025-03-10",
		TimeSlotID:   5,
		PersonsCount: 40,
		CuisineID:    1,
		MenuItemIDs:  []int64{100, 200},
	}
}

func committed(d bookingModel.Draft) bookingModel.Confirmation {
	return bookingModel.Confirmation{
		Booking: bookingModel.Booking{ID: "42", Date: d.Date, TimeSlotID: d.TimeSlotID, MenuItemIDs: d.MenuItemIDs},
		Summary: bookingModel.Summary{BookingID: "42", Date: d.Date, EventName: d.EventName},
	}
}

func (h *harness) awaitReview(t *testing.T, sess *service.Session) {
	t.Helper()

	h.booking.EXPECT().Propose(gomock.Any(), gomock.Any(), h.snap).Return(draft(), nil)
	h.conn.push(proposal("call-1"))

	require.Eventually(t, func() bool {
		return sess.Status().ConfirmationState == model.ConfirmationAwaiting
	}, waitFor, tick)
}

func TestOpen(t *testing.T) {
	h := newHarness(t)

	var setup agent.Setup

	h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(h.snap, nil)
	h.dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s agent.Setup) (agent.Conn, error) {
		setup = s

		return h.conn, nil
	})

	sess, err := h.svc.Open(context.Background(), service.OpenRequest{AccessToken: token, Capture: h.device, Speaker: h.sink})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	require.Len(t, setup.Functions, 1)
	assert.Equal(t, agent.ProposeBookingName, setup.Functions[0].Name)
	assert.Contains(t, setup.SystemInstruction, "2025-03-10 Monday: free Lunch (id 5)")
	assert.Contains(t, setup.SystemInstruction, "Levantine")

	status := sess.Status()
	assert.Equal(t, model.SessionOpen, status.State)
	assert.Equal(t, model.CaptureRecording, status.CaptureState)
	assert.Equal(t, model.PlaybackIdle, status.PlaybackState)
	assert.Equal(t, model.DisplayListening, status.Display)

	opens, _ := h.device.counts()
	assert.Equal(t, 1, opens)

	got, err := h.svc.Get(context.Background(), token, sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = h.svc.Get(context.Background(), "someone-else", sess.ID())
	assert.ErrorIs(t, err, failure.SessionNotFound)
}

func TestOpen_Failures(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.svc.Open(context.Background(), service.OpenRequest{Capture: h.device, Speaker: h.sink})
		assert.ErrorIs(t, err, failure.MissingAccessToken)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(nil, errors.New("catalog down"))

		_, err := h.svc.Open(context.Background(), service.OpenRequest{AccessToken: token, Capture: h.device, Speaker: h.sink})
		assert.ErrorContains(t, err, "catalog down")
	})

	t.Run("connection error", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(h.snap, nil)
		h.dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: handshake refused", model.ErrConnection))

		_, err := h.svc.Open(context.Background(), service.OpenRequest{AccessToken: token, Capture: h.device, Speaker: h.sink})
		assert.ErrorIs(t, err, model.ErrConnection)
	})

	t.Run("no microphone", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(h.snap, nil)
		h.dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(h.conn, nil)

		_, err := h.svc.Open(context.Background(), service.OpenRequest{AccessToken: token, Speaker: h.sink})
		require.ErrorIs(t, err, model.ErrDeviceUnavailable)

		assert.Equal(t, 1, h.conn.Closes())

		update := <-h.updates
		assert.Equal(t, string(model.SessionCaptureFailed), update[model.FieldStatus])
		assert.Equal(t, string(model.OutcomeFailed), update[model.FieldOutcome])
	})
}

func TestFunctionCall_Proposal(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	h.awaitReview(t, sess)

	status := sess.Status()
	assert.Equal(t, model.CaptureIdle, status.CaptureState, "capture halts while the draft is reviewed")
	assert.Equal(t, model.DisplayAwaiting, status.Display)
	require.NotNil(t, status.PendingDraft)
	assert.Equal(t, draft(), *status.PendingDraft)

	require.Eventually(t, func() bool { return len(h.conn.Responses()) == 1 }, waitFor, tick)
	resp := h.conn.Responses()[0]
	assert.Equal(t, "call-1", resp.CallID)
	assert.Equal(t, "awaiting_customer_confirmation", resp.Result["status"])
}

func TestFunctionCall_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		msg    agent.Inbound
		setup  func(h *harness)
		status string
		reason string
	}{
		{
			name: "validation rejected",
			msg:  proposal("call-1"),
			setup: func(h *harness) {
				h.booking.EXPECT().Propose(gomock.Any(), gomock.Any(), h.snap).
					Return(bookingModel.Draft{}, bookingModel.Reject("2025-03-10 Lunch is already booked"))
			},
			status: "rejected",
			reason: "2025-03-10 Lunch is already booked",
		},
		{
			name: "unexpected validation error",
			msg:  proposal("call-1"),
			setup: func(h *harness) {
				h.booking.EXPECT().Propose(gomock.Any(), gomock.Any(), h.snap).Return(bookingModel.Draft{}, errors.New("boom"))
			},
			status: "rejected",
			reason: "the booking could not be checked, please try again",
		},
		{
			name:   "unknown function",
			msg:    agent.Inbound{Call: &agent.FunctionCall{ID: "call-1", Name: "cancel_booking"}},
			setup:  func(*harness) {},
			status: "ignored",
			reason: "ignored: unknown function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sess := h.open(t)
			tt.setup(h)

			h.conn.push(tt.msg)

			require.Eventually(t, func() bool { return len(h.conn.Responses()) == 1 }, waitFor, tick)

			resp := h.conn.Responses()[0]
			assert.Equal(t, "call-1", resp.CallID)
			assert.Equal(t, tt.status, resp.Result["status"])
			assert.Equal(t, tt.reason, resp.Result["error"])

			status := sess.Status()
			assert.Equal(t, model.ConfirmationIdle, status.ConfirmationState)
			assert.Equal(t, model.CaptureRecording, status.CaptureState)
			assert.Empty(t, status.LastError, "rejections never reach the display as errors")
		})
	}
}

func TestFunctionCall_SecondProposalWhilePending(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)
	h.awaitReview(t, sess)

	h.conn.push(proposal("call-2"))

	require.Eventually(t, func() bool { return len(h.conn.Responses()) == 2 }, waitFor, tick)

	resp := h.conn.Responses()[1]
	assert.Equal(t, "call-2", resp.CallID)
	assert.Equal(t, "rejected", resp.Result["status"])
	assert.Equal(t, model.ErrDraftPending.Error(), resp.Result["error"])
	assert.Equal(t, model.ConfirmationAwaiting, sess.Status().ConfirmationState)
}

func TestAccept(t *testing.T) {
	t.Run("without a draft", func(t *testing.T) {
		h := newHarness(t)
		sess := h.open(t)

		_, err := h.svc.Accept(context.Background(), token, sess.ID())
		assert.ErrorIs(t, err, model.ErrNoPendingDraft)
	})

	t.Run("commits the draft", func(t *testing.T) {
		h := newHarness(t)
		sess := h.open(t)
		h.awaitReview(t, sess)

		h.booking.EXPECT().Commit(gomock.Any(), token, draft(), h.snap).Return(committed(draft()), nil)

		_, err := h.svc.Accept(context.Background(), token, sess.ID())
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return sess.Status().ConfirmationState == model.ConfirmationCommitted
		}, waitFor, tick)

		status := sess.Status()
		assert.Equal(t, model.DisplayConfirmed, status.Display)
		assert.Nil(t, status.PendingDraft)
		require.NotNil(t, status.Summary)
		assert.Equal(t, "42", status.Summary.BookingID)

		require.Eventually(t, func() bool { return len(h.conn.Texts()) == 1 }, waitFor, tick)
		assert.Contains(t, h.conn.Texts()[0], "saved with id 42")

		sess.Close()

		update := <-h.updates
		assert.Equal(t, string(model.OutcomeCommitted), update[model.FieldOutcome])
		assert.Equal(t, "42", *update["booking_id"].(*string))
	})

	t.Run("retry after a failed commit", func(t *testing.T) {
		h := newHarness(t)
		sess := h.open(t)
		h.awaitReview(t, sess)

		commitErr := fmt.Errorf("failed to commit booking: %w", &bookingModel.CommitError{Code: 422, Message: "the date is no longer available"})

		gomock.InOrder(
			h.booking.EXPECT().Commit(gomock.Any(), token, draft(), h.snap).Return(bookingModel.Confirmation{}, commitErr),
			h.booking.EXPECT().Commit(gomock.Any(), token, draft(), h.snap).Return(committed(draft()), nil),
		)

		_, err := h.svc.Accept(context.Background(), token, sess.ID())
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return sess.Status().ConfirmationState == model.ConfirmationCommitFailed
		}, waitFor, tick)

		status := sess.Status()
		assert.Equal(t, "error: the date is no longer available", status.Display)
		require.NotNil(t, status.PendingDraft, "the draft survives a failed commit")

		require.Eventually(t, func() bool { return sess.Status().CaptureState == model.CaptureRecording }, waitFor, tick)

		require.Eventually(t, func() bool { return len(h.conn.Texts()) == 1 }, waitFor, tick)
		assert.Contains(t, h.conn.Texts()[0], "the date is no longer available")

		_, err = h.svc.Accept(context.Background(), token, sess.ID())
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return sess.Status().ConfirmationState == model.ConfirmationCommitted
		}, waitFor, tick)
	})
}

func TestAccept_CommittedSlotIsBookedForLaterProposals(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)
	h.awaitReview(t, sess)

	h.booking.EXPECT().Commit(gomock.Any(), token, draft(), h.snap).Return(committed(draft()), nil)

	_, err := h.svc.Accept(context.Background(), token, sess.ID())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sess.Status().ConfirmationState == model.ConfirmationCommitted
	}, waitFor, tick)

	require.Eventually(t, func() bool { return sess.Snapshot().Booked("2025-03-10", 5) }, waitFor, tick)

	snap := sess.Snapshot()
	assert.False(t, h.snap.Booked("2025-03-10", 5), "the loaded snapshot is not mutated")

	h.booking.EXPECT().Propose(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ map[string]any, snap *catalogModel.Snapshot) (bookingModel.Draft, error) {
			if snap.Booked("2025-03-10", 5) {
				return bookingModel.Draft{}, bookingModel.Reject("2025-03-10 Lunch is already booked")
			}

			return draft(), nil
		})

	h.conn.push(proposal("call-2"))

	require.Eventually(t, func() bool { return len(h.conn.Responses()) == 2 }, waitFor, tick)

	resp := h.conn.Responses()[1]
	assert.Equal(t, "rejected", resp.Result["status"])
	assert.Equal(t, "2025-03-10 Lunch is already booked", resp.Result["error"])
	assert.Equal(t, model.ConfirmationCommitted, sess.Status().ConfirmationState)
	assert.Nil(t, sess.Status().PendingDraft)

	// A refresh that has not caught up with the commit keeps the slot taken.
	h.catalog.EXPECT().Invalidate(gomock.Any(), token).Return(nil)
	h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(h.snap, nil)

	_, err = h.svc.Refresh(context.Background(), token, sess.ID())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sess.Snapshot() != snap && sess.Snapshot().Booked("2025-03-10", 5)
	}, waitFor, tick)
}

func TestReject(t *testing.T) {
	t.Run("without a draft is a no-op", func(t *testing.T) {
		h := newHarness(t)
		sess := h.open(t)

		status, err := h.svc.Reject(context.Background(), token, sess.ID())
		require.NoError(t, err)
		assert.Equal(t, model.ConfirmationIdle, status.ConfirmationState)
		assert.Empty(t, h.conn.Texts())
	})

	t.Run("discards the draft and resumes listening", func(t *testing.T) {
		h := newHarness(t)
		sess := h.open(t)
		h.awaitReview(t, sess)

		status, err := h.svc.Reject(context.Background(), token, sess.ID())
		require.NoError(t, err)

		assert.Equal(t, model.ConfirmationIdle, status.ConfirmationState)
		assert.Nil(t, status.PendingDraft)
		assert.Equal(t, model.CaptureRecording, status.CaptureState)
		assert.Equal(t, model.DisplayListening, status.Display)

		require.Len(t, h.conn.Texts(), 1)
		assert.Contains(t, h.conn.Texts()[0], "rejected the proposed booking")

		_, err = h.svc.Accept(context.Background(), token, sess.ID())
		assert.ErrorIs(t, err, model.ErrNoPendingDraft)
	})
}

func TestPlayback(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	// half a second of 24 kHz mono PCM16
	h.conn.push(agent.Inbound{Audio: &agent.AudioDelta{Data: make([]byte, 24000), SampleRate: 24000}})

	require.Eventually(t, func() bool { return sess.Status().PlaybackState == model.PlaybackPlaying }, waitFor, tick)
	assert.Equal(t, model.DisplaySpeaking, sess.Status().Display)

	h.clock.Advance(500 * time.Millisecond)

	require.Eventually(t, func() bool { return sess.Status().PlaybackState == model.PlaybackIdle }, waitFor, tick)
	assert.Equal(t, model.DisplayListening, sess.Status().Display)
}

func TestPlayback_IdleResumesCaptureAfterCommit(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)
	h.awaitReview(t, sess)

	h.booking.EXPECT().Commit(gomock.Any(), token, draft(), h.snap).Return(committed(draft()), nil)

	_, err := h.svc.Accept(context.Background(), token, sess.ID())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sess.Status().ConfirmationState == model.ConfirmationCommitted
	}, waitFor, tick)
	assert.Equal(t, model.CaptureIdle, sess.Status().CaptureState)

	h.conn.push(agent.Inbound{Audio: &agent.AudioDelta{Data: make([]byte, 4800), SampleRate: 24000}})
	require.Eventually(t, func() bool { return sess.Status().PlaybackState == model.PlaybackPlaying }, waitFor, tick)

	h.clock.Advance(100 * time.Millisecond)

	require.Eventually(t, func() bool { return sess.Status().CaptureState == model.CaptureRecording }, waitFor, tick)
}

func TestInterruption(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	h.conn.push(agent.Inbound{Audio: &agent.AudioDelta{Data: make([]byte, 48000), SampleRate: 24000}})
	h.conn.push(agent.Inbound{Audio: &agent.AudioDelta{Data: make([]byte, 48000), SampleRate: 24000}})
	h.conn.push(agent.Inbound{Interrupted: true})

	require.Eventually(t, func() bool { return len(h.sink.Cancelled()) == 2 }, waitFor, tick)

	status := sess.Status()
	assert.Equal(t, model.PlaybackIdle, status.PlaybackState)
	assert.Equal(t, model.CaptureRecording, status.CaptureState)
}

func TestProtocolAnomaliesAreDropped(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	h.conn.push(agent.Inbound{})
	h.conn.push(agent.Inbound{Audio: &agent.AudioDelta{Data: make([]byte, 480), SampleRate: 24000}, Interrupted: true})
	h.conn.push(agent.Inbound{Call: &agent.FunctionCall{ID: "call-1", Name: "lookup"}})

	require.Eventually(t, func() bool { return len(h.conn.Responses()) == 1 }, waitFor, tick)
	assert.Equal(t, model.SessionOpen, sess.Status().State)
}

func TestConnectionFailures(t *testing.T) {
	tests := []struct {
		name      string
		breakConn func(c *fakeConn)
	}{
		{name: "agent closed", breakConn: func(c *fakeConn) { c.push(agent.Inbound{Lifecycle: agent.LifecycleClosed}) }},
		{name: "transport error", breakConn: func(c *fakeConn) { c.broken <- fmt.Errorf("%w: reset by peer", model.ErrConnection) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sess := h.open(t)
			h.awaitReview(t, sess)

			tt.breakConn(h.conn)

			require.Eventually(t, func() bool { return sess.Status().State == model.SessionConnectionFailed }, waitFor, tick)

			status := sess.Status()
			assert.True(t, strings.HasPrefix(status.Display, model.DisplayError))
			assert.Nil(t, status.PendingDraft, "the draft is discarded, never committed")
			assert.Equal(t, 1, h.conn.Closes())

			_, err := h.svc.Accept(context.Background(), token, sess.ID())
			assert.ErrorIs(t, err, model.ErrSessionClosed)
		})
	}
}

func TestCaptureFailure(t *testing.T) {
	tests := []struct {
		name string
		fail func(cb capture.Callbacks)
	}{
		{
			name: "repeated device errors",
			fail: func(cb capture.Callbacks) {
				for range 3 {
					cb.OnError(errors.New("device lost"))
				}
			},
		},
		{
			name: "microphone stops on its own",
			fail: func(cb capture.Callbacks) {
				cb.OnStopped(errors.New("microphone stopped unexpectedly"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sess := h.open(t)

			tt.fail(h.device.callbacks())

			require.Eventually(t, func() bool { return sess.Status().State == model.SessionCaptureFailed }, waitFor, tick)

			status := sess.Status()
			assert.Contains(t, status.Display, "audio device unavailable")
			assert.Equal(t, model.CaptureIdle, status.CaptureState)
			assert.Equal(t, 1, h.conn.Closes())
		})
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)
	h.awaitReview(t, sess)

	updates, cancel := sess.Subscribe()
	defer cancel()

	require.NoError(t, h.svc.Close(context.Background(), token, sess.ID()))
	sess.Close()

	<-sess.Done()

	_, closes := h.device.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, h.conn.Closes())

	status := sess.Status()
	assert.Equal(t, model.SessionClosed, status.State)
	assert.Nil(t, status.PendingDraft)

	update := <-h.updates
	assert.Equal(t, string(model.SessionClosed), update[model.FieldStatus])
	assert.Equal(t, string(model.OutcomeNoBooking), update[model.FieldOutcome])
	assert.Empty(t, h.updates, "closing twice records once")

	var last model.Status
	for s := range updates {
		last = s
	}

	assert.Equal(t, model.SessionClosed, last.State)

	_, err := h.svc.Get(context.Background(), token, sess.ID())
	assert.ErrorIs(t, err, failure.SessionNotFound)

	assert.ErrorIs(t, sess.Reject(context.Background()), model.ErrSessionClosed)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	fresh := catalogModel.NewSnapshot(catalogModel.SnapshotData{
		From:      h.snap.From,
		To:        h.snap.To,
		TimeSlots: []catalogModel.TimeSlot{{ID: 5, Name: "Lunch", Weekdays: []int{0, 2}}},
		Events:    []catalogModel.BookedEvent{{Date: "2025-03-10", TimeSlotID: 5}},
	})

	h.catalog.EXPECT().Invalidate(gomock.Any(), token).Return(nil)
	h.catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(fresh, nil)

	_, err := h.svc.Refresh(context.Background(), token, sess.ID())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sess.Snapshot() == fresh }, waitFor, tick)
	require.Eventually(t, func() bool { return len(h.conn.Texts()) == 1 }, waitFor, tick)
	assert.Contains(t, h.conn.Texts()[0], "2025-03-10 Monday: fully booked")
}

func TestStatus_FromAuditTrail(t *testing.T) {
	h := newHarness(t)
	lastError := "agent connection failed: reset by peer"

	h.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.SessionRecord{
		ID:        "ended-1",
		Status:    string(model.SessionConnectionFailed),
		LastError: &lastError,
	}, true, nil)

	status, err := h.svc.Status(context.Background(), token, "ended-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionConnectionFailed, status.State)
	assert.Equal(t, "error: "+lastError, status.Display)

	h.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.SessionRecord{}, false, nil)

	_, err = h.svc.Status(context.Background(), token, "missing")
	assert.ErrorIs(t, err, failure.SessionNotFound)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	params := gDto.QueryParams{Page: 1, Limit: 10}
	opened := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	h.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.SessionRecord{
		{ID: "s1", Status: string(model.SessionClosed), Outcome: string(model.OutcomeCommitted), OpenedAt: opened},
	}, nil)
	h.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(11, nil)

	res, err := h.svc.List(context.Background(), token, params)
	require.NoError(t, err)

	require.Len(t, res.Sessions, 1)
	assert.Equal(t, "s1", res.Sessions[0].ID)
	assert.Equal(t, 11, res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.TotalPage)

	h.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return(nil, errors.New("db down"))

	_, err = h.svc.List(context.Background(), token, params)
	assert.ErrorContains(t, err, "db down")
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)
	sess := h.open(t)

	h.svc.Shutdown(context.Background())

	select {
	case <-sess.Done():
	case <-time.After(waitFor):
		t.Fatal("session still open after shutdown")
	}
}
