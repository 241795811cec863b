package capture

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	return out
}

func f32(samples ...float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}

	return out
}

func constant16(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}

	return out
}

func TestConverter_FramesAtTransportRate(t *testing.T) {
	conv, err := newConverter(Format{SampleRate: 16000, Channels: 1, Encoding: EncodingS16LE}, 16000, 320)
	require.NoError(t, err)

	frames, err := conv.push(s16(constant16(300, 1000)...))
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = conv.push(s16(constant16(360, 1000)...))
	require.NoError(t, err)
	require.Len(t, frames, 2)

	for _, frame := range frames {
		assert.Len(t, frame, 640)
	}

	assert.Len(t, conv.pending, 20)
}

func TestConverter_DownmixAndResample(t *testing.T) {
	conv, err := newConverter(Format{SampleRate: 48000, Channels: 2, Encoding: EncodingF32LE}, 16000, 320)
	require.NoError(t, err)

	interleaved := make([]float32, 0, 960*2)
	for range 960 {
		interleaved = append(interleaved, 0.5, -0.5)
	}

	frames, err := conv.push(f32(interleaved...))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	for i := 0; i < 320; i++ {
		assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(frames[0][i*2:])))
	}

	frames, err = conv.push(f32(interleaved...))
	require.NoError(t, err)
	assert.Len(t, frames, 1)
	assert.Empty(t, conv.pending)
}

func TestConverter_ResampleIsContinuousAcrossBuffers(t *testing.T) {
	conv, err := newConverter(Format{SampleRate: 32000, Channels: 1, Encoding: EncodingF32LE}, 16000, 4)
	require.NoError(t, err)

	ramp := func(from, n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(from+i) / 1000
		}

		return out
	}

	first := conv.resample(ramp(0, 5))
	second := conv.resample(ramp(5, 5))

	got := append(first, second...)
	require.Len(t, got, 5)

	for i, v := range got {
		assert.InDelta(t, float32(i*2)/1000, v, 1e-6)
	}
}

func TestConverter_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		raw    []byte
	}{
		{name: "odd byte count", format: Format{SampleRate: 16000, Channels: 1, Encoding: EncodingS16LE}, raw: []byte{1, 2, 3}},
		{name: "partial stereo sample", format: Format{SampleRate: 16000, Channels: 2, Encoding: EncodingS16LE}, raw: s16(1, 2, 3)},
		{name: "not a number", format: Format{SampleRate: 16000, Channels: 1, Encoding: EncodingF32LE}, raw: f32(float32(math.NaN()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := newConverter(tt.format, 16000, 320)
			require.NoError(t, err)

			_, err = conv.push(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestFormat_Validate(t *testing.T) {
	assert.NoError(t, Format{SampleRate: 44100, Channels: 2, Encoding: EncodingF32LE}.Validate())
	assert.Error(t, Format{SampleRate: 0, Channels: 1, Encoding: EncodingS16LE}.Validate())
	assert.Error(t, Format{SampleRate: 16000, Channels: 0, Encoding: EncodingS16LE}.Validate())
	assert.Error(t, Format{SampleRate: 16000, Channels: 1, Encoding: "mp3"}.Validate())
}

func TestToInt16(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), toInt16(1.5))
	assert.Equal(t, int16(math.MinInt16), toInt16(-2))
	assert.Equal(t, int16(0), toInt16(0))
}
