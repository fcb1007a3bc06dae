package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pibot-ai/pibot/cmd/pibot/internal"
	"github.com/pibot-ai/pibot/pkg/app"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
)

func gatewayCmd(configPath string, debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	if configPath == "" {
		configPath = internal.GetConfigPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if cfg.LogFile != "" {
		if err := logger.SetLogFile(cfg.LogFile); err != nil {
			fmt.Printf("⚠ Audit log disabled: %v\n", err)
		} else {
			defer logger.CloseLogFile()
		}
	}

	container, err := app.NewContainer(cfg, configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := container.Start(ctx); err != nil {
		return fmt.Errorf("error starting gateway: %w", err)
	}

	enabledChannels := container.Channels.GetEnabledChannels()
	if len(enabledChannels) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", enabledChannels)
	} else {
		fmt.Println("⚠ Warning: No channels enabled")
	}
	if container.Provider == nil {
		fmt.Println("⚠ Warning: no provider API key — auto-replies and /api/generate disabled")
	}

	fmt.Printf("✓ Gateway started on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	container.Stop()
	fmt.Println("✓ Gateway stopped")

	return nil
}
