package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/relay"
)

func newRelayCmd() *cobra.Command {
	var (
		tfFlag    string
		tier      string
		statePath string
		sendDelay time.Duration
		testMsg   string
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Forward new merged-feed signals to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			r, err := relay.New(relay.Config{
				BotToken:     cfg.Relay.BotToken,
				ChatID:       cfg.Relay.ChatID,
				Timeframe:    domain.ParseTimeframe(tfFlag),
				Tier:         domain.ParseTier(tier),
				PollInterval: cfg.Relay.PollInterval,
				SendDelay:    sendDelay,
				DedupeWindow: cfg.Relay.DedupeWindow,
				StatePath:    statePath,
			}, app.pipeline)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if testMsg != "" {
				return r.SendMessage(ctx, testMsg)
			}

			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tfFlag, "tf", "15m", "Trend timeframe for the feed")
	cmd.Flags().StringVar(&tier, "potential", "MED", "Minimum potential tier for the feed")
	cmd.Flags().StringVar(&statePath, "state", "/var/data/telegram_all_signals.json", "Dedupe state file")
	cmd.Flags().DurationVar(&sendDelay, "send-delay", 600*time.Millisecond, "Pause between messages")
	cmd.Flags().StringVar(&testMsg, "test-message", "", "Send one message and exit")
	return cmd
}
