package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
)

// Manager owns all configured platform channels.
type Manager struct {
	channels map[string]Channel
	mu       sync.RWMutex
}

// NewManager creates channels for every enabled platform in cfg. A channel
// that fails to initialize (missing or invalid credential) is skipped with a
// warning: the messaging feature degrades, the rest of the gateway stays up.
func NewManager(cfg *config.Config, mailbox *bus.Mailbox, mb *bus.MessageBus) (*Manager, error) {
	m := &Manager{
		channels: make(map[string]Channel),
	}

	if cfg.Channels.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Channels.Telegram, mailbox, mb)
		if err != nil {
			logger.WarnCF("channels", "Telegram channel unavailable", map[string]any{
				"error": err.Error(),
			})
		} else {
			m.channels["telegram"] = ch
		}
	}

	if cfg.Channels.Discord.Enabled {
		ch, err := NewDiscordChannel(cfg.Channels.Discord, mailbox, mb)
		if err != nil {
			logger.WarnCF("channels", "Discord channel unavailable", map[string]any{
				"error": err.Error(),
			})
		} else {
			m.channels["discord"] = ch
		}
	}

	return m, nil
}

func (m *Manager) Register(name string, ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[name] = ch
}

func (m *Manager) Get(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, name)
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var firstErr error
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to start channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("starting %s: %w", name, err)
			}
		}
	}
	return firstErr
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Failed to stop channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

// GetStatus reports the running state of every registered channel.
func (m *Manager) GetStatus() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]any, len(m.channels))
	for name, ch := range m.channels {
		status[name] = map[string]any{
			"running": ch.IsRunning(),
		}
	}
	return status
}

func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}
