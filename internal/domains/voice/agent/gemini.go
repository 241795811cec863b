package agent

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"sync"

	"feastline/config"
	"feastline/internal/domains/voice/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultOutputRate = 24000

type geminiDialer struct {
	client    *genai.Client
	model     string
	voiceName string
	inputMIME string
}

// NewGeminiDialer opens agent connections over the Gemini Live API.
func NewGeminiDialer(client *genai.Client, cfg *config.Config) Dialer {
	return &geminiDialer{
		client:    client,
		model:     cfg.External.Gemini.Model,
		voiceName: cfg.External.Gemini.VoiceName,
		inputMIME: fmt.Sprintf("audio/pcm;rate=%d", cfg.Voice.CaptureSampleRate),
	}
}

func (d *geminiDialer) Dial(ctx context.Context, setup Setup) (Conn, error) {
	connectConfig := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction:  genai.NewContentFromText(setup.SystemInstruction, genai.RoleUser),
		Tools:              []*genai.Tool{{FunctionDeclarations: setup.Functions}},
	}

	if d.voiceName != "" {
		connectConfig.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: d.voiceName},
			},
		}
	}

	session, err := d.client.Live.Connect(ctx, d.model, connectConfig)
	if err != nil {
		log.Error().Err(err).Str("model", d.model).Msg("failed to connect to agent")

		return nil, fmt.Errorf("%w: %v", model.ErrConnection, err)
	}

	return &geminiConn{session: session, inputMIME: d.inputMIME}, nil
}

type geminiConn struct {
	session   *genai.Session
	inputMIME string

	sendMu  sync.Mutex
	pending []Inbound
}

func (c *geminiConn) send(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := fn(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConnection, err)
	}

	return nil
}

func (c *geminiConn) SendAudio(ctx context.Context, frame []byte) error {
	return c.send(ctx, func() error {
		return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{Data: frame, MIMEType: c.inputMIME},
		})
	})
}

func (c *geminiConn) SendText(ctx context.Context, text string) error {
	return c.send(ctx, func() error {
		return c.session.SendRealtimeInput(genai.LiveRealtimeInput{Text: text})
	})
}

func (c *geminiConn) SendToolResponse(ctx context.Context, resp ToolResponse) error {
	return c.send(ctx, func() error {
		return c.session.SendToolResponse(genai.LiveToolResponseInput{
			FunctionResponses: []*genai.FunctionResponse{{
				ID:       resp.CallID,
				Name:     resp.Name,
				Response: resp.Result,
			}},
		})
	})
}

// Receive returns the next single-payload message. A server message bundling several payloads
// is split and the parts are returned one by one, in the order audio, calls, interruption, lifecycle.
func (c *geminiConn) Receive() (Inbound, error) {
	if len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]

		return next, nil
	}

	msg, err := c.session.Receive()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Inbound{Lifecycle: LifecycleClosed}, nil
		}

		return Inbound{}, fmt.Errorf("%w: %v", model.ErrConnection, err)
	}

	parts := splitServerMessage(msg)
	c.pending = parts[1:]

	return parts[0], nil
}

func (c *geminiConn) Close() error {
	if err := c.session.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to close agent connection: %w", err)
	}

	return nil
}

// splitServerMessage never returns an empty slice. A message with nothing recognisable becomes
// an empty Inbound, which Kind reports as an anomaly.
func splitServerMessage(msg *genai.LiveServerMessage) []Inbound {
	var out []Inbound

	if content := msg.ServerContent; content != nil {
		if content.ModelTurn != nil {
			for _, part := range content.ModelTurn.Parts {
				if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}

				out = append(out, Inbound{Audio: &AudioDelta{
					Data:       part.InlineData.Data,
					SampleRate: sampleRate(part.InlineData.MIMEType),
				}})
			}
		}
	}

	if msg.ToolCall != nil {
		for _, call := range msg.ToolCall.FunctionCalls {
			if call == nil {
				continue
			}

			out = append(out, Inbound{Call: &FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args}})
		}
	}

	if msg.ServerContent != nil && msg.ServerContent.Interrupted {
		out = append(out, Inbound{Interrupted: true})
	}

	switch {
	case msg.SetupComplete != nil:
		out = append(out, Inbound{Lifecycle: LifecycleSetupComplete})
	case msg.ToolCallCancellation != nil:
		out = append(out, Inbound{Lifecycle: LifecycleToolCallCancelled})
	case msg.GoAway != nil:
		out = append(out, Inbound{Lifecycle: LifecycleGoAway})
	case msg.ServerContent != nil && msg.ServerContent.TurnComplete:
		out = append(out, Inbound{Lifecycle: LifecycleTurnComplete})
	}

	if len(out) == 0 {
		out = append(out, Inbound{})
	}

	return out
}

func sampleRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return defaultOutputRate
	}

	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return defaultOutputRate
	}

	return rate
}
