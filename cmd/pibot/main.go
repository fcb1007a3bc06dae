// PiBot - AI assistant gateway with a Telegram message relay
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pibot-ai/pibot/cmd/pibot/internal"
	"github.com/pibot-ai/pibot/cmd/pibot/internal/chat"
	"github.com/pibot-ai/pibot/cmd/pibot/internal/gateway"
	"github.com/pibot-ai/pibot/cmd/pibot/internal/version"
)

func NewPibotCommand() *cobra.Command {
	short := fmt.Sprintf("%s pibot - AI Assistant Gateway v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "pibot",
		Short:   short,
		Example: "pibot gateway",
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		chat.NewChatCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewPibotCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
