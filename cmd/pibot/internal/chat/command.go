package chat

import (
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var gatewayURL string
	var apiKey string
	var chatID string
	var topicID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a Telegram conversation through a running gateway",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return chatCmd(gatewayURL, apiKey, chatID, topicID)
		},
	}

	cmd.Flags().StringVarP(&gatewayURL, "gateway", "g", "http://localhost:3000", "Gateway base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gateway API key (if auth is enabled)")
	cmd.Flags().StringVar(&chatID, "chat", "", "Telegram chat id (default: gateway relay config)")
	cmd.Flags().StringVar(&topicID, "topic", "", "Telegram topic id (default: gateway relay config)")

	return cmd
}
