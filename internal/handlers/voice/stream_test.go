package voice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"feastline/config"
	otelMocks "feastline/infras/otel/mocks"
	bookingMocks "feastline/internal/domains/booking/mocks"
	catalogMocks "feastline/internal/domains/catalog/mocks"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/internal/domains/voice/agent"
	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/mocks"
	"feastline/internal/domains/voice/model"
	voiceService "feastline/internal/domains/voice/service"
	gDto "feastline/shared/dto"
	"feastline/shared/timezone"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

const grantedHello = `{"type":"hello","microphone":{"granted":true,"sample_rate":16000,"encoding":"pcm_s16le","channels":1}}`

func streamConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Voice.CaptureSampleRate = 16000
	cfg.Voice.CaptureFrameMillis = 20
	cfg.Voice.CaptureQueueSize = 16
	cfg.Voice.MaxDeviceErrors = 3
	cfg.Voice.HandshakeSeconds = 1
	cfg.Voice.InboundFramesPerSec = 100

	return cfg
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/voice-sessions/stream?token=" + token

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

// readFrame skips frames until one of the wanted type arrives.
func readFrame(t *testing.T, ws *websocket.Conn, frameType string) map[string]any {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(waitFor)))

	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)

		frame := map[string]any{}
		require.NoError(t, json.Unmarshal(data, &frame))

		if frame["type"] == frameType {
			return frame
		}
	}
}

func TestStream_Handshake(t *testing.T) {
	tests := []struct {
		name            string
		messageType     int
		hello           string
		expectedMessage string
	}{
		{
			name:            "binary first frame",
			messageType:     websocket.BinaryMessage,
			hello:           "\x00\x01",
			expectedMessage: "first frame must be hello",
		},
		{
			name:            "not json",
			messageType:     websocket.TextMessage,
			hello:           "accept",
			expectedMessage: "invalid hello frame",
		},
		{
			name:            "wrong frame type",
			messageType:     websocket.TextMessage,
			hello:           `{"type":"accept"}`,
			expectedMessage: "invalid hello frame",
		},
		{
			name:            "microphone permission denied",
			messageType:     websocket.TextMessage,
			hello:           `{"type":"hello","microphone":{"granted":false}}`,
			expectedMessage: "audio device unavailable: microphone permission denied",
		},
		{
			name:            "unsupported encoding",
			messageType:     websocket.TextMessage,
			hello:           `{"type":"hello","microphone":{"granted":true,"sample_rate":16000,"encoding":"opus","channels":1}}`,
			expectedMessage: `unsupported encoding "opus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockVoiceService(ctrl)

			server := httptest.NewServer(newRouter(svc, streamConfig(), clockwork.NewRealClock()))
			defer server.Close()

			ws := dial(t, server)
			require.NoError(t, ws.WriteMessage(tt.messageType, []byte(tt.hello)))

			frame := readFrame(t, ws, "error")
			assert.Contains(t, frame["message"], tt.expectedMessage)
		})
	}
}

func TestStream_HandshakeTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockVoiceService(ctrl)

	server := httptest.NewServer(newRouter(svc, streamConfig(), clockwork.NewRealClock()))
	defer server.Close()

	ws := dial(t, server)

	frame := readFrame(t, ws, "error")
	assert.Equal(t, "failed to read hello", frame["message"])
}

func TestStream_OpenFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockVoiceService(ctrl)

	svc.EXPECT().Open(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req voiceService.OpenRequest) (*voiceService.Session, error) {
		assert.Equal(t, token, req.AccessToken)
		assert.Equal(t, capture.Format{SampleRate: 16000, Channels: 1, Encoding: capture.EncodingS16LE}, req.Capture.Format())
		assert.NotNil(t, req.Speaker)

		return nil, fmt.Errorf("failed to connect to agent: %w", model.ErrConnection)
	})

	server := httptest.NewServer(newRouter(svc, streamConfig(), clockwork.NewRealClock()))
	defer server.Close()

	ws := dial(t, server)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(grantedHello)))

	frame := readFrame(t, ws, "error")
	assert.Equal(t, "failed to connect to agent: agent connection failed", frame["message"])
}

type agentConn struct {
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	frames int
}

func (c *agentConn) SendAudio(_ context.Context, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++

	return nil
}

func (c *agentConn) SendText(_ context.Context, _ string) error { return nil }

func (c *agentConn) SendToolResponse(_ context.Context, _ agent.ToolResponse) error { return nil }

func (c *agentConn) Receive() (agent.Inbound, error) {
	<-c.closed

	return agent.Inbound{}, fmt.Errorf("%w: use of closed connection", model.ErrConnection)
}

func (c *agentConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return nil
}

func (c *agentConn) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frames
}

func TestStream_Session(t *testing.T) {
	ctrl := gomock.NewController(t)

	from, err := timezone.ParseDate("2025-03-01")
	require.NoError(t, err)
	to, err := timezone.ParseDate("2025-03-31")
	require.NoError(t, err)

	snap := catalogModel.NewSnapshot(catalogModel.SnapshotData{
		From:      from,
		To:        to,
		TimeSlots: []catalogModel.TimeSlot{{ID: 5, Name: "Lunch", Weekdays: []int{0, 2}}},
	})

	conn := &agentConn{closed: make(chan struct{})}
	updates := make(chan map[string]any, 1)

	catalog := catalogMocks.NewMockCatalogService(ctrl)
	catalog.EXPECT().Snapshot(gomock.Any(), token, gomock.Any(), gomock.Any()).Return(snap, nil)

	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(conn, nil)

	repo := mocks.NewMockSession(ctrl)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req map[string]any, _ gDto.FilterGroup) error {
			updates <- req

			return nil
		})

	cfg := streamConfig()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 5, 10, 0, 0, 0, timezone.GetLocation()))
	svc := voiceService.New(cfg, dialer, catalog, bookingMocks.NewMockBookingService(ctrl), repo, otelMocks.NewOtel(), clock)

	server := httptest.NewServer(newRouter(svc, cfg, clock))
	defer server.Close()

	ws := dial(t, server)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(grantedHello)))

	assert.Equal(t, true, readFrame(t, ws, "capture")["active"])

	session := readFrame(t, ws, "session")
	assert.NotEmpty(t, session["id"])

	status := readFrame(t, ws, "status")["status"].(map[string]any)
	assert.Equal(t, "recording", status["capture_state"])
	assert.Equal(t, "listening", status["display"])

	// One 20 ms frame of 16 kHz mono PCM16.
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, make([]byte, 640)))
	require.Eventually(t, func() bool { return conn.Frames() == 1 }, waitFor, tick)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("dance")))
	assert.Equal(t, `unknown command "dance"`, readFrame(t, ws, "error")["message"])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"accept"}`)))
	assert.Equal(t, "no booking draft is awaiting confirmation", readFrame(t, ws, "error")["message"])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("close")))

	select {
	case update := <-updates:
		assert.Equal(t, "closed", update["status"])
		assert.Equal(t, "no-booking", update["outcome"])
	case <-time.After(waitFor):
		t.Fatal("voice session was not closed")
	}

	select {
	case <-conn.closed:
	case <-time.After(waitFor):
		t.Fatal("agent connection was not closed")
	}
}
