package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/pibot-ai/pibot/cmd/pibot/internal"
	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/relayclient"
)

func chatCmd(gatewayURL, apiKey, chatID, topicID string) error {
	client := relayclient.New(gatewayURL, apiKey)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollInterval := 2 * time.Second

	// The conversation address comes from flags, falling back to the
	// gateway's relay config.
	if chatID == "" {
		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return fmt.Errorf("cannot reach gateway at %s: %w", gatewayURL, err)
		}
		chatID = cfg.Relay.ChatID
		if topicID == "" {
			topicID = cfg.Relay.TopicID
		}
		if cfg.Relay.PollIntervalMS > 0 {
			pollInterval = time.Duration(cfg.Relay.PollIntervalMS) * time.Millisecond
		}
	}
	if chatID == "" {
		return errors.New("no chat id: pass --chat or set relay.chat_id in the gateway config")
	}

	fmt.Printf("%s Relay chat with %s", internal.Logo, chatID)
	if topicID != "" {
		fmt.Printf(" (topic %s)", topicID)
	}
	fmt.Println(" — Ctrl+C to exit")

	poller := relayclient.NewPoller(client, chatID, topicID, pollInterval, func(msg bus.Message) {
		fmt.Printf("\n%s %s: %s\n", internal.Logo, msg.Sender, msg.Content)
	})
	go poller.Run(ctx)

	return inputLoop(ctx, client, chatID, topicID)
}

func inputLoop(ctx context.Context, client *relayclient.Client, chatID, topicID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".pibot_chat_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		if _, err := client.Send(ctx, chatID, topicID, input); err != nil {
			var reqErr *relayclient.RequestError
			if errors.As(err, &reqErr) && reqErr.IsUnavailable() {
				fmt.Println("Gateway reports the Telegram bot is not available; try again later.")
				continue
			}
			fmt.Printf("Send failed: %v\n", err)
		}
	}
}
