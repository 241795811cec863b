package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyBuffer = errors.New("audio buffer is empty")
	ErrInterrupted = errors.New("playback was interrupted")
)

// Buffer is mono PCM16 LE audio.
type Buffer struct {
	Data       []byte
	SampleRate int
}

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}

	return time.Duration(len(b.Data)/2) * time.Second / time.Duration(b.SampleRate)
}

type Handle uint64

// Sink renders scheduled buffers against the same clock the Scheduler uses.
type Sink interface {
	Schedule(h Handle, at time.Time, buf Buffer) error
	Cancel(handles []Handle)
}

type Scheduled struct {
	Handle Handle
	Start  time.Time
	End    time.Time
}

type entry struct {
	Scheduled
	timer clockwork.Timer
}

// Scheduler plays buffers back to back in arrival order. Scheduled buffers live in an arena
// with a cursor at the first unfinished one; an interruption drops the arena in one step.
type Scheduler struct {
	clock  clockwork.Clock
	sink   Sink
	onIdle func()
	log    zerolog.Logger

	enqueueMu sync.Mutex

	mu         sync.Mutex
	arena      []entry
	cursor     int
	next       time.Time
	lastHandle Handle
	gen        uint64
}

// NewScheduler builds an idle scheduler. onIdle runs on a timer goroutine whenever the last
// scheduled buffer finishes.
func NewScheduler(clock clockwork.Clock, sink Sink, onIdle func(), logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		onIdle: onIdle,
		log:    logger.With().Str("component", "playback").Logger(),
		next:   clock.Now(),
	}
}

// Enqueue schedules buf right after everything already scheduled, or now if playback ran dry.
// The sink is called outside the scheduler lock; Enqueue calls themselves are serialized.
func (s *Scheduler) Enqueue(buf Buffer) (Scheduled, error) {
	duration := buf.Duration()
	if duration <= 0 {
		return Scheduled{}, ErrEmptyBuffer
	}

	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	s.mu.Lock()

	start := s.next
	if now := s.clock.Now(); now.After(start) {
		start = now
	}

	s.lastHandle++
	scheduled := Scheduled{
		Handle: s.lastHandle,
		Start:  start,
		End:    start.Add(duration),
	}
	gen := s.gen

	s.mu.Unlock()

	if err := s.sink.Schedule(scheduled.Handle, scheduled.Start, buf); err != nil {
		s.log.Warn().Err(err).Uint64("handle", uint64(scheduled.Handle)).Msg("failed to schedule audio buffer")

		return Scheduled{}, fmt.Errorf("failed to schedule audio buffer: %w", err)
	}

	s.mu.Lock()

	if gen != s.gen {
		s.mu.Unlock()

		// Interrupted while the sink was busy; the buffer must not outlive the interruption.
		s.sink.Cancel([]Handle{scheduled.Handle})

		return Scheduled{}, ErrInterrupted
	}

	s.next = scheduled.End

	timer := s.clock.AfterFunc(scheduled.End.Sub(s.clock.Now()), func() {
		s.finished(gen)
	})

	s.arena = append(s.arena, entry{Scheduled: scheduled, timer: timer})

	s.mu.Unlock()

	return scheduled, nil
}

func (s *Scheduler) finished(gen uint64) {
	s.mu.Lock()

	if gen != s.gen || s.cursor >= len(s.arena) {
		s.mu.Unlock()

		return
	}

	s.cursor++

	idle := s.cursor == len(s.arena)
	if idle {
		s.arena = s.arena[:0]
		s.cursor = 0
	}

	s.mu.Unlock()

	if idle && s.onIdle != nil {
		s.onIdle()
	}
}

// Interrupt cancels every buffer not yet finished and rewinds the cursor to now.
// It returns the cancelled handles.
func (s *Scheduler) Interrupt() []Handle {
	s.mu.Lock()

	s.gen++

	var handles []Handle
	for _, e := range s.arena[s.cursor:] {
		e.timer.Stop()
		handles = append(handles, e.Handle)
	}

	s.arena = nil
	s.cursor = 0
	s.next = s.clock.Now()

	s.mu.Unlock()

	if len(handles) > 0 {
		s.sink.Cancel(handles)
	}

	return handles
}

// Playing reports whether any scheduled buffer has not finished yet.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cursor < len(s.arena)
}

// Pending returns the schedule of every unfinished buffer.
func (s *Scheduler) Pending() []Scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Scheduled, 0, len(s.arena)-s.cursor)
	for _, e := range s.arena[s.cursor:] {
		out = append(out, e.Scheduled)
	}

	return out
}
