package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/scan"
)

// newScanCmd runs one view once and prints it, for cron jobs and
// eyeballing classifier output without a server.
func newScanCmd() *cobra.Command {
	var (
		view    string
		tfFlag  string
		tier    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single list view and print it as JSON",
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

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			tf := domain.ParseTimeframe(tfFlag)
			potential := domain.ParseTier(tier)

			var items []*scan.Item
			switch view {
			case "smart_money":
				items, err = app.pipeline.SmartMoney(ctx, tf)
			case "whale_alert":
				items, err = app.pipeline.WhaleAlert(ctx, tf)
			case "hot_buys":
				items, err = app.pipeline.HotBuys(ctx, tf)
			case "uptrend_signal":
				items, err = app.pipeline.SignalPlus(ctx, tf, potential)
			case "all_signals":
				items, err = app.pipeline.AllSignals(ctx, tf, potential)
			case "trending_low_risk":
				items, err = app.pipeline.TrendingLowRisk(ctx, tf)
			case "top_volume":
				items, err = app.pipeline.TopVolume(ctx)
			case "high_liquidity":
				items, err = app.pipeline.HighLiquidity(ctx)
			case "boosted":
				items, err = app.pipeline.Boosted(ctx)
			case "risky":
				items, err = app.pipeline.Risky(ctx)
			case "majors":
				items, err = app.pipeline.Majors(ctx, tf)
			default:
				return fmt.Errorf("unknown view %q", view)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"count": len(items), "items": items})
		},
	}
	cmd.Flags().StringVar(&view, "view", "all_signals", "View to build")
	cmd.Flags().StringVar(&tfFlag, "tf", "15m", "Trend timeframe (5m|10m|15m|1h|4h|1d)")
	cmd.Flags().StringVar(&tier, "potential", "MED", "Minimum potential tier for gated views")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall scan deadline")
	return cmd
}
