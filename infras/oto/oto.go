package oto

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

// bufferMillis trades latency against underruns; 100 ms matches one typical agent audio chunk.
const bufferMillis = 100

// New opens the platform speaker for mono PCM16 LE at sampleRate. oto allows a single context per process.
func New(sampleRate int) (*oto.Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferMillis * time.Millisecond,
	})
	if err != nil {
		log.Error().Err(err).Int("sample_rate", sampleRate).Msg("failed to open speaker")

		return nil, fmt.Errorf("failed to open speaker: %w", err)
	}

	<-ready

	return ctx, nil
}
