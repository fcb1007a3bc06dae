// Package relay turns inbound platform messages into assistant replies and
// records the echo copy that the web client polls for.
package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/channels"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
	"github.com/pibot-ai/pibot/pkg/personas"
	"github.com/pibot-ai/pibot/pkg/providers"
	"github.com/pibot-ai/pibot/pkg/worker"
)

// AssistantLabel is the sender tag on echoed assistant replies.
const AssistantLabel = "assistant"

const fallbackReply = "Sorry, I ran into a problem generating a response. Please try again."

const greetingReply = "Hi! I'm your assistant bot. Send me a message and I'll answer, " +
	"or use /status to check that I'm alive."

const statusReply = "Bot is up and running."

const processTaskUsage = "Please include a task description, e.g. /process_task summarize the server logs."

var timeNow = time.Now

// ChannelResolver finds a platform channel by name. *channels.Manager
// satisfies it.
type ChannelResolver interface {
	Get(name string) (channels.Channel, bool)
}

// Responder consumes inbound messages from the bus, generates replies, and
// sends them back over the originating channel.
type Responder struct {
	bus      *bus.MessageBus
	mailbox  *bus.Mailbox
	resolver ChannelResolver
	provider providers.LLMProvider
	registry *personas.Registry
	cfg      *config.Config
}

func NewResponder(
	mb *bus.MessageBus,
	mailbox *bus.Mailbox,
	resolver ChannelResolver,
	provider providers.LLMProvider,
	registry *personas.Registry,
	cfg *config.Config,
) *Responder {
	return &Responder{
		bus:      mb,
		mailbox:  mailbox,
		resolver: resolver,
		provider: provider,
		registry: registry,
		cfg:      cfg,
	}
}

// Run processes inbound messages until ctx is cancelled.
func (r *Responder) Run(ctx context.Context) {
	logger.InfoC("relay", "Responder started")
	for {
		msg, ok := r.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("relay", "Responder stopped")
			return
		}
		r.handleInbound(ctx, msg)
	}
}

func (r *Responder) handleInbound(ctx context.Context, msg bus.Message) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, "/") {
		r.handleCommand(ctx, msg, content)
		return
	}

	reply, generated := r.generateReply(ctx, content)
	r.deliver(ctx, msg, reply, generated)
}

// handleCommand serves the built-in bot commands. Service replies (greeting,
// status, usage hints, computation reports) are sent to the platform but not
// echoed; they are chatter, not assistant output. /process_task produces
// generated output and goes through the normal deliver-and-echo path.
func (r *Responder) handleCommand(ctx context.Context, msg bus.Message, content string) {
	cmd := strings.Fields(content)[0]

	switch cmd {
	case "/start":
		r.sendServiceReply(ctx, msg, cmd, greetingReply)
	case "/status":
		r.sendServiceReply(ctx, msg, cmd, statusReply)
	case "/process_task":
		desc := strings.TrimSpace(strings.TrimPrefix(content, cmd))
		if desc == "" {
			r.sendServiceReply(ctx, msg, cmd, processTaskUsage)
			return
		}
		reply, generated := r.generateReply(ctx, "Process this task and report the outcome: "+desc)
		r.deliver(ctx, msg, reply, generated)
	case "/heavy_process":
		res, err := worker.RunHeavyTask(ctx, 0)
		if err != nil {
			logger.ErrorCF("relay", "Heavy task failed", map[string]any{
				"error": err.Error(),
			})
			return
		}
		report := fmt.Sprintf("Heavy computation finished in %d ms (result %.2f).", res.Millis, res.Result)
		r.sendServiceReply(ctx, msg, cmd, report)
	default:
		logger.DebugCF("relay", "Ignoring command message", map[string]any{
			"command": cmd,
			"channel": msg.Channel,
		})
	}
}

func (r *Responder) sendServiceReply(ctx context.Context, msg bus.Message, cmd, reply string) {
	ch, ok := r.resolver.Get(msg.Channel)
	if !ok {
		return
	}
	if _, err := ch.Send(ctx, msg.ChatID, msg.TopicID, reply); err != nil {
		logger.ErrorCF("relay", "Failed to send command reply", map[string]any{
			"command": cmd,
			"error":   err.Error(),
		})
	}
}

// generateReply asks the provider for a response. The second return value
// is false when generation failed and the fallback text is used instead.
// A nil provider degrades to the fallback text so the relay keeps answering.
func (r *Responder) generateReply(ctx context.Context, content string) (string, bool) {
	if r.provider == nil {
		return fallbackReply, false
	}

	persona := r.registry.Resolve(r.cfg.Reply.Persona)

	model := persona.Model
	if model == "" {
		model = r.cfg.Reply.Model
	}
	if model == "" {
		model = r.provider.GetDefaultModel()
	}

	temperature := persona.Temperature
	if temperature == 0 {
		temperature = r.cfg.Reply.Temperature
	}
	maxTokens := persona.MaxTokens
	if maxTokens == 0 {
		maxTokens = r.cfg.Reply.MaxTokens
	}

	messages := []providers.Message{
		{Role: "system", Content: persona.Soul},
		{Role: "user", Content: content},
	}
	options := map[string]any{
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	reply, err := r.provider.Chat(ctx, messages, model, options)
	if err != nil {
		logger.ErrorCF("relay", "Generation failed, using fallback reply", map[string]any{
			"model": model,
			"error": err.Error(),
		})
		return fallbackReply, false
	}
	return reply, true
}

// deliver sends the reply over the originating channel and, only when the
// platform accepted it, enqueues the echo copy for polling clients.
func (r *Responder) deliver(ctx context.Context, msg bus.Message, reply string, generated bool) {
	ch, ok := r.resolver.Get(msg.Channel)
	if !ok {
		logger.WarnCF("relay", "No channel registered for inbound message", map[string]any{
			"channel": msg.Channel,
		})
		return
	}

	platformID, err := ch.Send(ctx, msg.ChatID, msg.TopicID, reply)
	if err != nil {
		logger.ErrorCF("relay", "Failed to deliver reply", map[string]any{
			"channel": msg.Channel,
			"chat_id": msg.ChatID,
			"error":   err.Error(),
		})
		return
	}

	r.mailbox.Enqueue(bus.Message{
		Direction:         bus.DirectionEcho,
		Channel:           msg.Channel,
		ChatID:            msg.ChatID,
		TopicID:           msg.TopicID,
		Sender:            AssistantLabel,
		Content:           reply,
		PlatformMessageID: platformID,
		CreatedAt:         timeNow(),
	})

	logger.DebugCF("relay", "Reply delivered", map[string]any{
		"channel":   msg.Channel,
		"chat_id":   msg.ChatID,
		"generated": generated,
	})
}
