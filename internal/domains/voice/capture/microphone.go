package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

const microphonePeriodMillis = 20

// Microphone is the local capture Device backed by miniaudio.
type Microphone struct {
	ctx    malgo.Context
	format Format

	mu       sync.Mutex
	device   *malgo.Device
	stopping *atomic.Bool
}

func NewMicrophone(ctx malgo.Context, sampleRate int) *Microphone {
	return &Microphone{
		ctx: ctx,
		format: Format{
			SampleRate: sampleRate,
			Channels:   1,
			Encoding:   EncodingS16LE,
		},
	}
}

func (m *Microphone) Format() Format {
	return m.format
}

func (m *Microphone) Open(cb Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return errors.New("microphone is already open")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.format.Channels)
	deviceConfig.SampleRate = uint32(m.format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = microphonePeriodMillis

	stopping := &atomic.Bool{}

	device, err := malgo.InitDevice(m.ctx, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			cb.OnData(input)
		},
		Stop: func() {
			if !stopping.Load() && cb.OnStopped != nil {
				cb.OnStopped(errors.New("microphone stopped unexpectedly"))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to init microphone: %w", err)
	}

	if err = device.Start(); err != nil {
		device.Uninit()

		return fmt.Errorf("failed to start microphone: %w", err)
	}

	m.device = device
	m.stopping = stopping

	return nil
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil
	}

	m.stopping.Store(true)
	err := m.device.Stop()
	m.device.Uninit()
	m.device = nil

	if err != nil {
		return fmt.Errorf("failed to stop microphone: %w", err)
	}

	return nil
}
