package capture_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	mu      sync.Mutex
	format  capture.Format
	openErr error
	cb      *capture.Callbacks
	opens   int
	closes  int
}

func (d *fakeDevice) Format() capture.Format {
	return d.format
}

func (d *fakeDevice) Open(cb capture.Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return d.openErr
	}

	d.opens++
	d.cb = &cb

	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closes++

	return nil
}

func (d *fakeDevice) callbacks() capture.Callbacks {
	d.mu.Lock()
	defer d.mu.Unlock()

	return *d.cb
}

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	block  chan struct{}
}

func (s *fakeSender) SendAudio(ctx context.Context, frame []byte) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = append(s.frames, frame)

	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.frames)
}

var cfg = capture.Config{SampleRate: 16000, FrameMillis: 20, QueueSize: 4, MaxDeviceErrors: 3}

func newDevice() *fakeDevice {
	return &fakeDevice{format: capture.Format{SampleRate: 16000, Channels: 1, Encoding: capture.EncodingS16LE}}
}

func TestConfig_FrameSamples(t *testing.T) {
	assert.Equal(t, 320, cfg.FrameSamples())
}

func TestPipeline_ForwardsFrames(t *testing.T) {
	device := newDevice()
	sender := &fakeSender{}
	p := capture.New(cfg, device, sender, nil, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Active())

	device.callbacks().OnData(make([]byte, 640*2+100))

	assert.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 5*time.Millisecond)

	sender.mu.Lock()
	for _, frame := range sender.frames {
		assert.Len(t, frame, 640)
	}
	sender.mu.Unlock()

	require.NoError(t, p.Stop())
	assert.False(t, p.Active())
	assert.Equal(t, 1, device.closes)
}

func TestPipeline_StartIsExclusive(t *testing.T) {
	device := newDevice()
	p := capture.New(cfg, device, &fakeSender{}, nil, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))

	assert.Equal(t, 1, device.opens)
	require.NoError(t, p.Stop())
}

func TestPipeline_StopIsIdempotent(t *testing.T) {
	device := newDevice()
	p := capture.New(cfg, device, &fakeSender{}, nil, zerolog.Nop())

	require.NoError(t, p.Stop())

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())

	assert.Equal(t, 1, device.closes)
}

func TestPipeline_StartFailures(t *testing.T) {
	tests := []struct {
		name   string
		device capture.Device
	}{
		{name: "permission denied", device: &fakeDevice{format: newDevice().format, openErr: errors.New("permission denied")}},
		{name: "unsupported format", device: &fakeDevice{format: capture.Format{SampleRate: 16000, Channels: 1, Encoding: "alaw"}}},
		{name: "no device", device: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := capture.New(cfg, tt.device, &fakeSender{}, nil, zerolog.Nop())

			err := p.Start(context.Background())
			assert.ErrorIs(t, err, model.ErrDeviceUnavailable)
			assert.False(t, p.Active())
		})
	}
}

func TestPipeline_FullQueueDropsWithoutBlocking(t *testing.T) {
	device := newDevice()
	sender := &fakeSender{block: make(chan struct{})}
	p := capture.New(cfg, device, sender, nil, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		for range 20 {
			device.callbacks().OnData(make([]byte, 640))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("capture callback blocked")
	}

	assert.Positive(t, p.Dropped())

	require.NoError(t, p.Stop())
	close(sender.block)
}

func TestPipeline_MalformedBufferIsDropped(t *testing.T) {
	device := newDevice()
	sender := &fakeSender{}
	p := capture.New(cfg, device, sender, nil, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))

	device.callbacks().OnData([]byte{1, 2, 3})
	device.callbacks().OnData(make([]byte, 640))

	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), p.Dropped())

	require.NoError(t, p.Stop())
}

func TestPipeline_RepeatedDeviceErrorsFail(t *testing.T) {
	device := newDevice()

	var calls atomic.Int32
	failed := make(chan error, 1)

	p := capture.New(cfg, device, &fakeSender{}, func(err error) {
		calls.Add(1)
		failed <- err
	}, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))

	for range 4 {
		device.callbacks().OnError(errors.New("buffer overrun"))
	}

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, model.ErrDeviceUnavailable)
	case <-time.After(time.Second):
		t.Fatal("capture failure was not reported")
	}

	require.NoError(t, p.Stop())
	assert.ErrorIs(t, p.Start(context.Background()), model.ErrDeviceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPipeline_DeviceStopFailsImmediately(t *testing.T) {
	device := newDevice()
	failed := make(chan error, 2)

	p := capture.New(cfg, device, &fakeSender{}, func(err error) {
		failed <- err
	}, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))

	device.callbacks().OnStopped(errors.New("microphone stopped unexpectedly"))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, model.ErrDeviceUnavailable)
		assert.Contains(t, err.Error(), "microphone stopped unexpectedly")
	case <-time.After(time.Second):
		t.Fatal("a stopped microphone was not reported")
	}

	device.callbacks().OnError(errors.New("buffer overrun"))
	device.callbacks().OnStopped(errors.New("again"))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, failed, "failure is reported once")

	require.NoError(t, p.Stop())
	assert.ErrorIs(t, p.Start(context.Background()), model.ErrDeviceUnavailable)
}

func TestPipeline_IgnoresCallbacksAfterStop(t *testing.T) {
	device := newDevice()
	sender := &fakeSender{}
	var failures atomic.Int32
	p := capture.New(cfg, device, sender, func(error) { failures.Add(1) }, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))
	stale := device.callbacks()
	require.NoError(t, p.Stop())

	stale.OnData(make([]byte, 640))
	stale.OnError(errors.New("late"))
	stale.OnStopped(errors.New("late"))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sender.count())
	assert.Zero(t, p.Dropped())
	assert.Zero(t, failures.Load())
}
