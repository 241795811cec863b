package playback

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

type chunk struct {
	handle Handle
	data   []byte
}

// Speaker is the local Sink backed by an oto player. Buffers are written to one continuous
// stream in schedule order; silence fills the stream whenever nothing is queued.
type Speaker struct {
	ctx        *oto.Context
	sampleRate int

	mu     sync.Mutex
	queue  []chunk
	player *oto.Player
	closed bool
}

func NewSpeaker(ctx *oto.Context, sampleRate int) *Speaker {
	return &Speaker{
		ctx:        ctx,
		sampleRate: sampleRate,
	}
}

func (s *Speaker) Schedule(h Handle, _ time.Time, buf Buffer) error {
	if buf.SampleRate != s.sampleRate {
		return fmt.Errorf("speaker runs at %d Hz, buffer is %d Hz", s.sampleRate, buf.SampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("speaker is closed")
	}

	s.queue = append(s.queue, chunk{handle: h, data: buf.Data})

	if s.player == nil {
		s.player = s.ctx.NewPlayer(s)
		s.player.Play()
	}

	return nil
}

func (s *Speaker) Cancel(handles []Handle) {
	s.mu.Lock()

	s.queue = slices.DeleteFunc(s.queue, func(c chunk) bool {
		return slices.Contains(handles, c.handle)
	})

	var player *oto.Player
	if len(s.queue) == 0 {
		player = s.player
		s.player = nil
	}

	s.mu.Unlock()

	// a fresh player is created by the next Schedule, so oto's own buffer is dropped too
	if player != nil {
		player.Pause()
		_ = player.Close()
	}
}

// Read implements io.Reader for the oto player.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(p) && len(s.queue) > 0 {
		head := &s.queue[0]

		copied := copy(p[n:], head.data)
		head.data = head.data[copied:]
		n += copied

		if len(head.data) == 0 {
			s.queue = s.queue[1:]
		}
	}

	clear(p[n:])

	return len(p), nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		return player.Close() //nolint:wrapcheck
	}

	return nil
}
