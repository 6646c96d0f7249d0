package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dexpulse/dexpulse/internal/config"
)

const (
	appName = "dexpulse"
	version = "v1.0.0"
)

var (
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	// Missing .env is fine; deployments set real env vars.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Real-time Solana token screener backed by DexScreener",
		Version: version,
		Long: `dexPulse polls DexScreener market data, classifies Solana tokens for
risk, dump pressure, whale flow, smart money and upside potential, and
serves ranked lists plus a durable buy-signal performance history.`,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to yaml config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")

	rootCmd.AddCommand(newServeCmd(), newScanCmd(), newRelayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and lets CLI flags win over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

// setupLogging installs the global zerolog logger. Interactive runs get
// the console writer, otherwise structured JSON goes to stderr, with an
// optional rotated file sink on top.
func setupLogging(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var sink io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		sink = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		sink = zerolog.MultiLevelWriter(sink, rotated)
	}
	log.Logger = zerolog.New(sink).With().Timestamp().Logger()
}
