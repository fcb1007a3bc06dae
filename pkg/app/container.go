// Package app is the gateway's composition root: it wires the mailbox, bus,
// provider, personas, channels, responder, and API server together and owns
// their lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/pibot-ai/pibot/pkg/api"
	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/channels"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
	"github.com/pibot-ai/pibot/pkg/personas"
	"github.com/pibot-ai/pibot/pkg/providers"
	"github.com/pibot-ai/pibot/pkg/relay"
)

// Container holds the gateway's wired components.
type Container struct {
	Config     *config.Config
	ConfigPath string

	Mailbox  *bus.Mailbox
	Bus      *bus.MessageBus
	Provider providers.LLMProvider // nil when no API key is configured
	Personas *personas.Registry
	Channels *channels.Manager
	Server   *api.Server

	responder *relay.Responder
	cancel    context.CancelFunc
}

// NewContainer builds a fully wired gateway. A missing provider key is not
// fatal: the relay keeps working, generation endpoints report 503.
func NewContainer(cfg *config.Config, configPath string) (*Container, error) {
	mailbox := bus.NewMailbox()
	msgBus := bus.NewMessageBus()

	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		logger.WarnCF("app", "No completion provider", map[string]any{
			"error": err.Error(),
		})
		provider = nil
	}

	registry, warns := personas.LoadDefaults()
	for _, w := range warns {
		logger.WarnCF("app", "Persona load warning", map[string]any{"warn": w})
	}

	manager, err := channels.NewManager(cfg, mailbox, msgBus)
	if err != nil {
		return nil, fmt.Errorf("creating channel manager: %w", err)
	}

	c := &Container{
		Config:     cfg,
		ConfigPath: configPath,
		Mailbox:    mailbox,
		Bus:        msgBus,
		Provider:   provider,
		Personas:   registry,
		Channels:   manager,
	}

	// The responder runs even without a provider: service commands like
	// /start and /status need no generation.
	c.responder = relay.NewResponder(msgBus, mailbox, manager, provider, registry, cfg)
	c.Server = api.NewServer(cfg, configPath, manager, mailbox, msgBus, provider, registry, nil)

	return c, nil
}

// Start brings up the responder, the platform channels, and the API server.
func (c *Container) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.responder.Run(runCtx)

	if err := c.Channels.StartAll(runCtx); err != nil {
		logger.ErrorCF("app", "Some channels failed to start", map[string]any{
			"error": err.Error(),
		})
	}

	return c.Server.Start(runCtx)
}

// Stop shuts everything down in reverse order.
func (c *Container) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.Server.Stop(); err != nil {
		logger.WarnCF("app", "Server shutdown error", map[string]any{
			"error": err.Error(),
		})
	}
	c.Channels.StopAll(context.Background())
	c.Bus.Close()
}
