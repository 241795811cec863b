package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"feastline/config"
	"feastline/internal/domains/voice/model"

	"github.com/rs/zerolog"
)

// Callbacks are invoked by a Device from its own audio thread. They must not block.
type Callbacks struct {
	OnData func(samples []byte)
	// OnError reports a device error after which samples may keep arriving.
	OnError func(err error)
	// OnStopped reports that the device quit on its own and delivers nothing more.
	OnStopped func(err error)
}

// Device is an exclusive microphone handle. Open acquires it, Close releases it and returns
// only after the device stopped invoking callbacks.
type Device interface {
	Format() Format
	Open(cb Callbacks) error
	Close() error
}

// Sender forwards a captured frame to the agent connection.
type Sender interface {
	SendAudio(ctx context.Context, frame []byte) error
}

type Config struct {
	SampleRate      int
	FrameMillis     int
	QueueSize       int
	MaxDeviceErrors int
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		SampleRate:      cfg.Voice.CaptureSampleRate,
		FrameMillis:     cfg.Voice.CaptureFrameMillis,
		QueueSize:       cfg.Voice.CaptureQueueSize,
		MaxDeviceErrors: cfg.Voice.MaxDeviceErrors,
	}
}

// FrameSamples is the sample count of one outbound frame.
func (c Config) FrameSamples() int {
	return c.SampleRate * c.FrameMillis / 1000
}

// Pipeline samples a Device and hands fixed size frames to a Sender. The device callback only
// converts and enqueues; a full queue drops the frame.
type Pipeline struct {
	cfg      Config
	device   Device
	sender   Sender
	onFailed func(error)
	log      zerolog.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc

	failed       atomic.Bool
	gen          atomic.Uint64
	deviceErrors atomic.Int32
	dropped      atomic.Int64
}

// New builds an idle pipeline. onFailed runs once, on its own goroutine, after
// cfg.MaxDeviceErrors device errors or as soon as the device stops on its own; the pipeline
// refuses to start again afterwards.
func New(cfg Config, device Device, sender Sender, onFailed func(error), logger zerolog.Logger) *Pipeline {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	if cfg.MaxDeviceErrors <= 0 {
		cfg.MaxDeviceErrors = 3
	}

	return &Pipeline{
		cfg:      cfg,
		device:   device,
		sender:   sender,
		onFailed: onFailed,
		log:      logger.With().Str("component", "capture").Logger(),
	}
}

// Start acquires the device. Starting an active pipeline is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failed.Load() {
		return fmt.Errorf("%w: capture stopped after repeated device errors", model.ErrDeviceUnavailable)
	}

	if p.active {
		return nil
	}

	if p.device == nil {
		return fmt.Errorf("%w: no microphone", model.ErrDeviceUnavailable)
	}

	conv, err := newConverter(p.device.Format(), p.cfg.SampleRate, p.cfg.FrameSamples())
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}

	gen := p.gen.Add(1)
	frames := make(chan []byte, p.cfg.QueueSize)

	err = p.device.Open(Callbacks{
		OnData: func(samples []byte) {
			p.handleData(gen, conv, frames, samples)
		},
		OnError: func(err error) {
			p.handleError(gen, err)
		},
		OnStopped: func(err error) {
			p.handleStopped(gen, err)
		},
	})
	if err != nil {
		p.gen.Add(1)
		p.log.Error().Err(err).Msg("failed to open microphone")

		return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.active = true

	go p.drain(ctx, frames)

	p.log.Debug().Int("frame_samples", p.cfg.FrameSamples()).Msg("capture started")

	return nil
}

// Stop releases the device. It is safe to call at any time, any number of times.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return nil
	}

	p.active = false
	p.gen.Add(1)
	p.cancel()

	if err := p.device.Close(); err != nil {
		p.log.Warn().Err(err).Msg("failed to release microphone")

		return fmt.Errorf("failed to release microphone: %w", err)
	}

	p.log.Debug().Int64("dropped_frames", p.dropped.Load()).Msg("capture stopped")

	return nil
}

func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

// Dropped returns the number of frames discarded so far.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Pipeline) handleData(gen uint64, conv *converter, frames chan<- []byte, samples []byte) {
	if p.gen.Load() != gen {
		return
	}

	out, err := conv.push(samples)
	if err != nil {
		p.dropped.Add(1)
		p.log.Debug().Err(err).Msg("dropping unconvertible capture buffer")

		return
	}

	for _, frame := range out {
		select {
		case frames <- frame:
		default:
			p.dropped.Add(1)
			p.log.Warn().Msg("capture queue full, dropping frame")
		}
	}
}

func (p *Pipeline) handleError(gen uint64, err error) {
	if p.gen.Load() != gen {
		return
	}

	count := p.deviceErrors.Add(1)
	p.log.Warn().Err(err).Int32("count", count).Msg("microphone error")

	if int(count) < p.cfg.MaxDeviceErrors {
		return
	}

	p.fail(err)
}

func (p *Pipeline) handleStopped(gen uint64, err error) {
	if p.gen.Load() != gen {
		return
	}

	p.log.Error().Err(err).Msg("microphone stopped")
	p.fail(err)
}

func (p *Pipeline) fail(err error) {
	if !p.failed.CompareAndSwap(false, true) {
		return
	}

	if p.onFailed != nil {
		go p.onFailed(fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err))
	}
}

func (p *Pipeline) drain(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			if err := p.sender.SendAudio(ctx, frame); err != nil && !errors.Is(err, context.Canceled) {
				p.log.Debug().Err(err).Msg("failed to forward capture frame")
			}
		}
	}
}
