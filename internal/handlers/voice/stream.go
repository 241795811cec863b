package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/model"
	"feastline/internal/domains/voice/playback"
	"feastline/internal/domains/voice/service"
	"feastline/shared/constant"
	"feastline/shared/validator"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	readBufferSize   = 16 * 1024
	writeBufferSize  = 64 * 1024
	outboundQueue    = 256
	writeTimeout     = 5 * time.Second
	pingInterval     = 20 * time.Second
	maxMessageBytes  = 1 << 20
	defaultHandshake = 5 * time.Second
)

const (
	frameHello   = "hello"
	frameSession = "session"
	frameStatus  = "status"
	frameCapture = "capture"
	framePlay    = "play"
	frameCancel  = "cancel"
	frameError   = "error"
)

const (
	commandAccept  = "accept"
	commandReject  = "reject"
	commandRefresh = "refresh"
	commandClose   = "close"
)

var (
	errDeviceBusy     = errors.New("microphone stream is already open")
	errStreamClosed   = errors.New("stream is closed")
	errStreamBackedUp = errors.New("stream is backed up")
)

type microphone struct {
	Granted bool `json:"granted"`
	capture.Format
}

type helloFrame struct {
	Type       string     `json:"type"       validate:"required,eq=hello"`
	Microphone microphone `json:"microphone"`
}

type commandFrame struct {
	Type string `json:"type"`
}

type sessionFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type statusFrame struct {
	Type   string       `json:"type"`
	Status model.Status `json:"status"`
}

type captureFrame struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

type playFrame struct {
	Type       string          `json:"type"`
	Handle     playback.Handle `json:"handle"`
	StartInMs  int64           `json:"start_in_ms"`
	SampleRate int             `json:"sample_rate"`
	Audio      []byte          `json:"audio"`
}

type cancelFrame struct {
	Type    string            `json:"type"`
	Handles []playback.Handle `json:"handles"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// outbound serializes every server frame onto the socket from a single writer goroutine.
type outbound struct {
	ws     *websocket.Conn
	frames chan any
	done   chan struct{}
	once   sync.Once
	exited chan struct{}
	log    zerolog.Logger
}

func newOutbound(ws *websocket.Conn, logger zerolog.Logger) *outbound {
	return &outbound{
		ws:     ws,
		frames: make(chan any, outboundQueue),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		log:    logger,
	}
}

// send queues a frame. It blocks while the queue is full and gives up once the writer stopped.
func (o *outbound) send(frame any) {
	select {
	case o.frames <- frame:
	case <-o.done:
	}
}

// trySend queues frame without waiting for room.
func (o *outbound) trySend(frame any) error {
	select {
	case <-o.done:
		return errStreamClosed
	default:
	}

	select {
	case o.frames <- frame:
		return nil
	default:
		return errStreamBackedUp
	}
}

// close flushes queued frames, sends a close frame and waits for the writer to exit.
func (o *outbound) close() {
	o.once.Do(func() { close(o.done) })
	<-o.exited
}

func (o *outbound) run() {
	defer close(o.exited)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-o.frames:
			if err := o.write(frame); err != nil {
				o.log.Debug().Err(err).Msg("failed to write websocket frame")
				o.stop()

				return
			}
		case <-ticker.C:
			if err := o.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				o.stop()

				return
			}
		case <-o.done:
			o.flush()
			_ = o.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))

			return
		}
	}
}

func (o *outbound) stop() {
	o.once.Do(func() { close(o.done) })
}

func (o *outbound) flush() {
	for {
		select {
		case frame := <-o.frames:
			if err := o.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (o *outbound) write(frame any) error {
	if err := o.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := o.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// wsDevice is the browser microphone behind the socket. Binary frames are fed to the capture
// callbacks while the pipeline holds the device open.
type wsDevice struct {
	mic microphone
	out *outbound

	mu sync.Mutex
	cb *capture.Callbacks
}

func (d *wsDevice) Format() capture.Format {
	return d.mic.Format
}

func (d *wsDevice) Open(cb capture.Callbacks) error {
	if !d.mic.Granted {
		return fmt.Errorf("%w: microphone permission denied", model.ErrDeviceUnavailable)
	}

	d.mu.Lock()
	if d.cb != nil {
		d.mu.Unlock()

		return errDeviceBusy
	}
	d.cb = &cb
	d.mu.Unlock()

	d.out.send(captureFrame{Type: frameCapture, Active: true})

	return nil
}

func (d *wsDevice) Close() error {
	d.mu.Lock()
	wasOpen := d.cb != nil
	d.cb = nil
	d.mu.Unlock()

	if wasOpen {
		d.out.send(captureFrame{Type: frameCapture, Active: false})
	}

	return nil
}

// feed hands samples to the pipeline. Holding the lock keeps callbacks from running after Close.
func (d *wsDevice) feed(samples []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cb == nil {
		return false
	}

	d.cb.OnData(samples)

	return true
}

// wsSink forwards scheduled agent audio to the browser, which plays each buffer start_in_ms
// after receipt.
type wsSink struct {
	out   *outbound
	clock clockwork.Clock
}

func (s *wsSink) Schedule(h playback.Handle, at time.Time, buf playback.Buffer) error {
	startIn := max(at.Sub(s.clock.Now()), 0)

	return s.out.trySend(playFrame{
		Type:       framePlay,
		Handle:     h,
		StartInMs:  startIn.Milliseconds(),
		SampleRate: buf.SampleRate,
		Audio:      buf.Data,
	})
}

func (s *wsSink) Cancel(handles []playback.Handle) {
	if len(handles) == 0 {
		return
	}

	s.out.send(cancelFrame{Type: frameCancel, Handles: handles})
}

// Stream runs one voice session over a websocket.
// @Summary Voice session stream
// @Description Websocket. The client sends a hello frame with its microphone format, then binary
// @Description microphone frames and text commands (accept, reject, refresh, close). The server
// @Description sends session, status, capture, play, cancel and error frames. Closing the socket
// @Description closes the session.
// @Tags Voice
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} response.Error
// @Router /v1/voice-sessions/stream [get]
func (handler *Handler) Stream(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Stream")
	defer scope.End()

	ws, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to upgrade voice stream")

		return
	}
	defer ws.Close()

	ws.SetReadLimit(maxMessageBytes)

	hello, err := handler.readHello(ws)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed voice stream handshake")
		writeWSError(ws, err.Error())

		return
	}

	out := newOutbound(ws, log.Logger)
	go out.run()
	defer out.close()

	device := &wsDevice{mic: hello.Microphone, out: out}
	sink := &wsSink{out: out, clock: handler.clock}

	accessToken := token(request)

	sess, err := handler.service.Open(ctx, service.OpenRequest{
		AccessToken: accessToken,
		Capture:     device,
		Speaker:     sink,
	})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to open voice session")
		out.send(errorFrame{Type: frameError, Message: toFailure(err).Error()})

		return
	}

	scope.SetAttribute(constant.OtelSessionAttributeKey, sess.ID())

	out.send(sessionFrame{Type: frameSession, ID: sess.ID()})

	statuses, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	go func() {
		for status := range statuses {
			out.send(statusFrame{Type: frameStatus, Status: status})
		}

		// The session was closed elsewhere. The close frame ends the read loop once the
		// client answers; the deadline covers clients that never do.
		out.stop()
		_ = ws.SetReadDeadline(time.Now().Add(writeTimeout))
	}()

	handler.readLoop(ctx, ws, out, device, accessToken, sess.ID())

	if err := handler.service.Close(context.WithoutCancel(ctx), accessToken, sess.ID()); err != nil {
		log.Debug().Err(err).Str("session_id", sess.ID()).Msg("voice session already closed")
	}
}

func (handler *Handler) readHello(ws *websocket.Conn) (helloFrame, error) {
	hello := helloFrame{}

	timeout := time.Duration(handler.config.Voice.HandshakeSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHandshake
	}

	if err := ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return hello, fmt.Errorf("failed to set read deadline: %w", err)
	}

	messageType, data, err := ws.ReadMessage()
	if err != nil {
		return hello, errors.New("failed to read hello")
	}

	if messageType != websocket.TextMessage {
		return hello, errors.New("first frame must be hello")
	}

	if err := validator.Validate(bytes.NewReader(data), &hello); err != nil {
		return hello, fmt.Errorf("invalid hello frame: %w", err)
	}

	if !hello.Microphone.Granted {
		return hello, fmt.Errorf("%w: microphone permission denied", model.ErrDeviceUnavailable)
	}

	if err := hello.Microphone.Validate(); err != nil {
		return hello, fmt.Errorf("%w: %w", model.ErrDeviceUnavailable, err)
	}

	if err := ws.SetReadDeadline(time.Time{}); err != nil {
		return hello, fmt.Errorf("failed to clear read deadline: %w", err)
	}

	return hello, nil
}

func (handler *Handler) readLoop(ctx context.Context, ws *websocket.Conn, out *outbound, device *wsDevice, accessToken, id string) {
	framesPerSec := handler.config.Voice.InboundFramesPerSec
	if framesPerSec <= 0 {
		framesPerSec = 100
	}

	limiter := rate.NewLimiter(rate.Limit(framesPerSec), framesPerSec)
	dropped := 0

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("session_id", id).Msg("voice stream closed unexpectedly")
			}

			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if !limiter.Allow() {
				dropped++
				if dropped%framesPerSec == 1 {
					log.Warn().Int("dropped", dropped).Str("session_id", id).Msg("inbound microphone frames over rate limit")
				}

				continue
			}

			device.feed(data)
		case websocket.TextMessage:
			if handler.command(ctx, out, accessToken, id, data) {
				return
			}
		}
	}
}

// command runs one text command and reports whether the client asked to close.
func (handler *Handler) command(ctx context.Context, out *outbound, accessToken, id string, data []byte) bool {
	name := strings.TrimSpace(string(data))

	if strings.HasPrefix(name, "{") {
		frame := commandFrame{}
		if err := json.Unmarshal(data, &frame); err != nil {
			out.send(errorFrame{Type: frameError, Message: "invalid command frame"})

			return false
		}

		name = frame.Type
	}

	var err error

	switch name {
	case commandAccept:
		_, err = handler.service.Accept(ctx, accessToken, id)
	case commandReject:
		_, err = handler.service.Reject(ctx, accessToken, id)
	case commandRefresh:
		_, err = handler.service.Refresh(ctx, accessToken, id)
	case commandClose:
		return true
	default:
		err = fmt.Errorf("unknown command %q", name)
	}

	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Str("command", name).Msg("voice stream command failed")
		out.send(errorFrame{Type: frameError, Message: toFailure(err).Error()})
	}

	return false
}

func writeWSError(ws *websocket.Conn, message string) {
	deadline := time.Now().Add(writeTimeout)

	_ = ws.SetWriteDeadline(deadline)
	_ = ws.WriteJSON(errorFrame{Type: frameError, Message: message})
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), deadline)
}
