package capture

import (
	"encoding/binary"
	"fmt"
	"math"
)

type Encoding string

const (
	EncodingS16LE Encoding = "pcm_s16le"
	EncodingF32LE Encoding = "pcm_f32le"
)

func (e Encoding) bytesPerSample() int {
	switch e {
	case EncodingS16LE:
		return 2
	case EncodingF32LE:
		return 4
	default:
		return 0
	}
}

// Format describes the raw samples a Device delivers. Multi-channel samples are interleaved.
type Format struct {
	SampleRate int      `json:"sample_rate"`
	Channels   int      `json:"channels"`
	Encoding   Encoding `json:"encoding"`
}

func (f Format) Validate() error {
	switch {
	case f.SampleRate < 8000 || f.SampleRate > 192000:
		return fmt.Errorf("unsupported sample rate %d", f.SampleRate)
	case f.Channels < 1 || f.Channels > 8:
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	case f.Encoding.bytesPerSample() == 0:
		return fmt.Errorf("unsupported encoding %q", f.Encoding)
	}

	return nil
}

// converter turns device buffers into mono PCM16 LE frames of a fixed sample count at the
// transport rate. It keeps resampling state between buffers and must be fed from one goroutine.
type converter struct {
	in           Format
	ratio        float64
	frameSamples int

	pos     float64
	tail    float32
	hasTail bool
	pending []int16
}

func newConverter(in Format, outRate, frameSamples int) (*converter, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if outRate <= 0 || frameSamples <= 0 {
		return nil, fmt.Errorf("invalid output rate %d or frame size %d", outRate, frameSamples)
	}

	return &converter{
		in:           in,
		ratio:        float64(in.SampleRate) / float64(outRate),
		frameSamples: frameSamples,
		pending:      make([]int16, 0, frameSamples*2),
	}, nil
}

// push converts raw and returns every frame completed by it, each frameSamples*2 bytes long.
func (c *converter) push(raw []byte) ([][]byte, error) {
	mono, err := c.decode(raw)
	if err != nil {
		return nil, err
	}

	for _, v := range c.resample(mono) {
		c.pending = append(c.pending, toInt16(v))
	}

	var frames [][]byte
	for len(c.pending) >= c.frameSamples {
		frame := make([]byte, c.frameSamples*2)
		for i, s := range c.pending[:c.frameSamples] {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(s))
		}

		frames = append(frames, frame)
		c.pending = append(c.pending[:0], c.pending[c.frameSamples:]...)
	}

	return frames, nil
}

func (c *converter) decode(raw []byte) ([]float32, error) {
	width := c.in.Encoding.bytesPerSample()
	stride := width * c.in.Channels

	if len(raw)%stride != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a whole number of %d byte samples", len(raw), stride)
	}

	out := make([]float32, len(raw)/stride)
	for i := range out {
		var sum float32

		for ch := 0; ch < c.in.Channels; ch++ {
			offset := i*stride + ch*width

			if c.in.Encoding == EncodingS16LE {
				sum += float32(int16(binary.LittleEndian.Uint16(raw[offset:]))) / 32768
			} else {
				v := math.Float32frombits(binary.LittleEndian.Uint32(raw[offset:]))
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					return nil, fmt.Errorf("sample %d is not a finite number", i)
				}

				sum += v
			}
		}

		out[i] = sum / float32(c.in.Channels)
	}

	return out, nil
}

// resample interpolates linearly. The series being read is the previous buffer's last sample
// followed by in, and pos is the read position within it.
func (c *converter) resample(in []float32) []float32 {
	if len(in) == 0 {
		return nil
	}

	if c.ratio == 1 {
		return in
	}

	series := in
	if c.hasTail {
		series = make([]float32, 0, len(in)+1)
		series = append(series, c.tail)
		series = append(series, in...)
	}

	out := make([]float32, 0, int(float64(len(series))/c.ratio)+1)
	last := len(series) - 1

	for c.pos < float64(last) {
		i := int(c.pos)
		frac := float32(c.pos - float64(i))
		out = append(out, series[i]+(series[i+1]-series[i])*frac)
		c.pos += c.ratio
	}

	c.pos -= float64(last)
	c.tail = series[last]
	c.hasTail = true

	return out
}

func toInt16(v float32) int16 {
	switch {
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return math.MinInt16
	default:
		return int16(v * math.MaxInt16)
	}
}
