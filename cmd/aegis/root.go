package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/infrastructure/config"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/infrastructure/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configFile string

	cfg             *config.Config
	logger          *slog.Logger
	shutdownTracing telemetry.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "Self-healing question answering over an internal document corpus",
	Long: `AegisAI answers questions against the configured document corpus, scores
retrieval confidence, gates answers on policy and quality, and repairs itself
in the background (re-ingestion or prompt tightening) when answers degrade.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to aegis.yaml (default: ./aegis.yaml or ./config/aegis.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	logger = newLogger(os.Stderr, cfg.Logging)
	slog.SetDefault(logger)

	shutdownTracing, err = telemetry.InitTracer(cmd.Context(), cfg.Telemetry.Tracing, os.Stdout)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if shutdownTracing != nil {
		shutdownTracing(cmd.Context())
	}
	return nil
}

func newLogger(w io.Writer, lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
