package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestSplitServerMessage(t *testing.T) {
	tests := []struct {
		name  string
		msg   *genai.LiveServerMessage
		kinds []Kind
	}{
		{
			name: "audio chunks then turn complete",
			msg: &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
				ModelTurn: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{Data: []byte{1, 0}, MIMEType: "audio/pcm;rate=24000"}},
					{Text: "thinking"},
					{InlineData: &genai.Blob{Data: []byte{2, 0}, MIMEType: "audio/pcm"}},
				}},
				TurnComplete: true,
			}},
			kinds: []Kind{KindAudio, KindAudio, KindLifecycle},
		},
		{
			name: "two function calls",
			msg: &genai.LiveServerMessage{ToolCall: &genai.LiveServerToolCall{FunctionCalls: []*genai.FunctionCall{
				{ID: "a", Name: ProposeBookingName},
				{ID: "b", Name: "lookup_weather"},
			}}},
			kinds: []Kind{KindFunctionCall, KindFunctionCall},
		},
		{
			name:  "interruption",
			msg:   &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{Interrupted: true}},
			kinds: []Kind{KindInterrupted},
		},
		{
			name:  "setup complete",
			msg:   &genai.LiveServerMessage{SetupComplete: &genai.LiveServerSetupComplete{}},
			kinds: []Kind{KindLifecycle},
		},
		{
			name:  "go away",
			msg:   &genai.LiveServerMessage{GoAway: &genai.LiveServerGoAway{}},
			kinds: []Kind{KindLifecycle},
		},
		{
			name:  "nothing recognisable",
			msg:   &genai.LiveServerMessage{},
			kinds: []Kind{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := splitServerMessage(tt.msg)
			require.Len(t, parts, len(tt.kinds))

			for i, part := range parts {
				kind, err := part.Kind()
				if tt.kinds[i] == 0 {
					assert.Error(t, err)
					continue
				}

				require.NoError(t, err)
				assert.Equal(t, tt.kinds[i], kind)
			}
		})
	}
}

func TestSplitServerMessage_KeepsCallFields(t *testing.T) {
	parts := splitServerMessage(&genai.LiveServerMessage{ToolCall: &genai.LiveServerToolCall{FunctionCalls: []*genai.FunctionCall{
		{ID: "call-1", Name: ProposeBookingName, Args: map[string]any{"date": "2025-03-10"}},
	}}})

	require.Len(t, parts, 1)
	require.NotNil(t, parts[0].Call)
	assert.Equal(t, "call-1", parts[0].Call.ID)
	assert.Equal(t, "2025-03-10", parts[0].Call.Args["date"])
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 24000, sampleRate("audio/pcm;rate=24000"))
	assert.Equal(t, 16000, sampleRate("audio/pcm; rate=16000"))
	assert.Equal(t, defaultOutputRate, sampleRate("audio/pcm"))
	assert.Equal(t, defaultOutputRate, sampleRate("audio/pcm;rate=fast"))
	assert.Equal(t, defaultOutputRate, sampleRate(""))
}
