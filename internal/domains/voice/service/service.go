package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Voice=MockVoiceService

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feastline/config"
	"feastline/infras/otel"
	availability "feastline/internal/domains/availability/service"
	bookingService "feastline/internal/domains/booking/service"
	catalogModel "feastline/internal/domains/catalog/model"
	catalogService "feastline/internal/domains/catalog/service"
	"feastline/internal/domains/voice/agent"
	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/confirmation"
	"feastline/internal/domains/voice/model"
	"feastline/internal/domains/voice/model/dto"
	"feastline/internal/domains/voice/playback"
	"feastline/internal/domains/voice/repository"
	"feastline/shared"
	"feastline/shared/constant"
	gDto "feastline/shared/dto"
	"feastline/shared/failure"
	"feastline/shared/logger"
	sharedModel "feastline/shared/model"
	"feastline/shared/timezone"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// OpenRequest carries the caller's access token and the audio devices the session takes
// exclusive ownership of.
type OpenRequest struct {
	AccessToken string
	Capture     capture.Device
	Speaker     playback.Sink
}

type Voice interface {
	// Open loads the catalog, connects to the agent and starts listening.
	Open(ctx context.Context, req OpenRequest) (*Session, error)
	Get(ctx context.Context, token, id string) (*Session, error)
	// Status reports a live session, or the final state of an ended one from the audit trail.
	Status(ctx context.Context, token, id string) (model.Status, error)
	Accept(ctx context.Context, token, id string) (model.Status, error)
	Reject(ctx context.Context, token, id string) (model.Status, error)
	// Refresh reloads the catalog and availability of a live session.
	Refresh(ctx context.Context, token, id string) (model.Status, error)
	Close(ctx context.Context, token, id string) error
	List(ctx context.Context, token string, params gDto.QueryParams) (dto.GetSessionsResponse, error)
	// Shutdown closes every live session.
	Shutdown(ctx context.Context)
}

type serviceImpl struct {
	cfg     *config.Config
	dialer  agent.Dialer
	catalog catalogService.Catalog
	booking bookingService.Booking
	repo    repository.Session
	otel    otel.Otel
	clock   clockwork.Clock

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(cfg *config.Config, dialer agent.Dialer, catalog catalogService.Catalog, booking bookingService.Booking, repo repository.Session, otel otel.Otel, clock clockwork.Clock) Voice {
	return &serviceImpl{
		cfg:      cfg,
		dialer:   dialer,
		catalog:  catalog,
		booking:  booking,
		repo:     repo,
		otel:     otel,
		clock:    clock,
		sessions: map[string]*Session{},
	}
}

func (s *serviceImpl) Open(ctx context.Context, req OpenRequest) (sess *Session, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.Open")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.AccessToken == "" {
		return nil, failure.MissingAccessToken
	}

	if req.Speaker == nil {
		return nil, fmt.Errorf("%w: no speaker", model.ErrDeviceUnavailable)
	}

	now := s.clock.Now()

	snap, err := s.monthSnapshot(ctx, req.AccessToken, now)
	if err != nil {
		return nil, err
	}

	instruction, err := agent.BuildSystemInstruction(snap, availability.ForSnapshot(snap), now)
	if err != nil {
		log.Error().Err(err).Msg("failed to build system instruction")

		return nil, fmt.Errorf("failed to build system instruction: %w", err)
	}

	conn, err := s.dialer.Dial(ctx, agent.Setup{
		SystemInstruction: instruction,
		Functions:         []*genai.FunctionDeclaration{agent.ProposeBookingDeclaration()},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to agent")

		return nil, fmt.Errorf("failed to connect to agent: %w", err)
	}

	sess = s.newSession(ctx, req, conn, snap, now)
	scope.SetAttribute(constant.OtelSessionAttributeKey, sess.id)

	s.recordOpened(ctx, sess)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.start()

	if err = sess.capture.Start(sess.ctx); err != nil {
		sess.fail(model.SessionCaptureFailed, err)
		sess.Close()

		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	sess.publish()
	sess.log.Info().Msg("voice session opened")

	return sess, nil
}

func (s *serviceImpl) newSession(ctx context.Context, req OpenRequest, conn agent.Conn, snap *catalogModel.Snapshot, now time.Time) *Session {
	id := uuid.NewString()
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	sess := &Session{
		id:            id,
		token:         req.AccessToken,
		tokenHash:     shared.HashToken(req.AccessToken),
		openedAt:      now,
		conn:          conn,
		confirm:       confirmation.New(),
		booking:       s.booking,
		commitTimeout: time.Duration(s.cfg.Voice.CommitTimeoutSecs) * time.Second,
		log:           logger.ForSession(id),
		ctx:           sessionCtx,
		cancel:        cancel,
		events:        make(chan event, eventQueueSize),
		done:          make(chan struct{}),
		loopDone:      make(chan struct{}),
		state:         model.SessionOpen,
		subs:          map[int]chan model.Status{},
		onClosed:      s.closed,
	}

	if sess.commitTimeout <= 0 {
		sess.commitTimeout = 15 * time.Second
	}

	sess.snap.Store(snap)

	sess.capture = capture.New(capture.ConfigFrom(s.cfg), req.Capture, conn, func(err error) {
		sess.post(event{kind: eventCaptureFailed, err: err})
	}, sess.log)

	sess.playback = playback.NewScheduler(s.clock, req.Speaker, func() {
		sess.post(event{kind: eventPlaybackIdle})
	}, sess.log)

	return sess
}

func (s *serviceImpl) monthSnapshot(ctx context.Context, token string, now time.Time) (*catalogModel.Snapshot, error) {
	first, last := timezone.MonthBounds(now)

	snap, err := s.catalog.Snapshot(ctx, token, first, last)
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog snapshot")

		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}

	return snap, nil
}

func (s *serviceImpl) recordOpened(ctx context.Context, sess *Session) {
	record := model.SessionRecord{
		ID:              sess.id,
		AccessTokenHash: sess.tokenHash,
		Status:          string(model.SessionOpen),
		Outcome:         string(model.OutcomeInProgress),
		OpenedAt:        sess.openedAt,
		Metadata:        sharedModel.NewMetadata(constant.SystemActor, sess.openedAt),
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		sess.log.Error().Err(err).Msg("failed to record voice session")
	}
}

// closed runs once per session, after its resources are released.
func (s *serviceImpl) closed(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	ctx, scope := s.otel.NewScope(context.WithoutCancel(sess.ctx), constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.closed")
	defer scope.End()

	closure := sess.closure(s.clock.Now())

	err := s.repo.Update(ctx, shared.TransformFields(closure, constant.SystemActor), shared.FilterByID(sess.id, model.FieldID, model.TableName))
	if err != nil {
		scope.TraceError(err)
		sess.log.Error().Err(err).Msg("failed to record voice session closure")
	}
}

func (s *serviceImpl) Get(ctx context.Context, token, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || !sess.OwnedBy(token) {
		return nil, failure.SessionNotFound
	}

	return sess, nil
}

func (s *serviceImpl) Status(ctx context.Context, token, id string) (status model.Status, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.Status")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if sess, err := s.Get(ctx, token, id); err == nil {
		return sess.Status(), nil
	}

	filter := gDto.And(
		gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldAccessTokenHash, Value: shared.HashToken(token), Operator: gDto.FilterOperatorEq, Table: model.TableName},
	)

	record, found, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("failed to get voice session record")

		return status, fmt.Errorf("failed to get voice session record: %w", err)
	}

	if !found {
		return status, failure.SessionNotFound
	}

	status = model.Status{
		SessionID:         record.ID,
		State:             model.SessionState(record.Status),
		CaptureState:      model.CaptureIdle,
		PlaybackState:     model.PlaybackIdle,
		ConfirmationState: model.ConfirmationIdle,
	}

	if record.LastError != nil {
		status.LastError = *record.LastError
	}

	// A row still marked open belongs to a process that stopped without closing it.
	if !status.State.Terminal() {
		status.State = model.SessionClosed
	}

	return status.WithDisplay(), nil
}

func (s *serviceImpl) Accept(ctx context.Context, token, id string) (status model.Status, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.Accept")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	sess, err := s.Get(ctx, token, id)
	if err != nil {
		return status, err
	}

	if err = sess.Accept(ctx); err != nil {
		sess.log.Warn().Err(err).Msg("failed to accept booking draft")

		return sess.Status(), fmt.Errorf("failed to accept booking draft: %w", err)
	}

	return sess.Status(), nil
}

func (s *serviceImpl) Reject(ctx context.Context, token, id string) (status model.Status, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.Reject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	sess, err := s.Get(ctx, token, id)
	if err != nil {
		return status, err
	}

	if err = sess.Reject(ctx); err != nil {
		sess.log.Warn().Err(err).Msg("failed to reject booking draft")

		return sess.Status(), fmt.Errorf("failed to reject booking draft: %w", err)
	}

	return sess.Status(), nil
}

func (s *serviceImpl) Refresh(ctx context.Context, token, id string) (status model.Status, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.Refresh")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	sess, err := s.Get(ctx, token, id)
	if err != nil {
		return status, err
	}

	if err := s.catalog.Invalidate(ctx, token); err != nil {
		sess.log.Warn().Err(err).Msg("failed to invalidate cached catalog")
	}

	snap, err := s.monthSnapshot(ctx, token, s.clock.Now())
	if err != nil {
		return sess.Status(), err
	}

	if err = sess.swapSnapshot(snap); err != nil {
		return sess.Status(), fmt.Errorf("failed to refresh voice session: %w", err)
	}

	sess.log.Info().Msg("catalog refreshed")

	return sess.Status(), nil
}

func (s *serviceImpl) Close(ctx context.Context, token, id string) error {
	sess, err := s.Get(ctx, token, id)
	if err != nil {
		return err
	}

	sess.Close()

	return nil
}

func (s *serviceImpl) List(ctx context.Context, token string, params gDto.QueryParams) (res dto.GetSessionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".voice.List")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := gDto.And(gDto.Filter{
		Field:    model.FieldAccessTokenHash,
		Value:    shared.HashToken(token),
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	})

	records, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list voice sessions")

		return res, fmt.Errorf("failed to list voice sessions: %w", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count voice sessions")

		return res, fmt.Errorf("failed to count voice sessions: %w", err)
	}

	res.FromModels(records, total, params)

	return res, nil
}

func (s *serviceImpl) Shutdown(_ context.Context) {
	s.mu.RLock()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.RUnlock()

	for _, sess := range live {
		sess.Close()
	}
}
