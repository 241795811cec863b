package malgo

import (
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
)

// Context owns the miniaudio context shared by local capture devices.
type Context struct {
	allocated *malgo.AllocatedContext
}

func New() (*Context, error) {
	cfg := malgo.ContextConfig{}
	cfg.ThreadPriority = malgo.ThreadPriorityRealtime

	allocated, err := malgo.InitContext(nil, cfg, func(message string) {
		log.Trace().Str("component", "malgo").Msg(message)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to init audio context")

		return nil, err //nolint:wrapcheck
	}

	return &Context{allocated: allocated}, nil
}

func (c *Context) Device() malgo.Context {
	return c.allocated.Context
}

func (c *Context) Close() {
	if err := c.allocated.Uninit(); err != nil {
		log.Warn().Err(err).Msg("failed to release audio context")
	}

	c.allocated.Free()
}
