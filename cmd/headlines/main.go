// headlines fetches stock news headlines over a period, scores their sentiment
// and writes them to CSV.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/headlines/api"
	"github.com/seenimoa/headlines/internal/config"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/internal/metrics"
	"github.com/seenimoa/headlines/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Shared state built by the root command before any subcommand runs.
var (
	cfg   *config.Config
	log   *zap.SugaredLogger
	stats *metrics.Metrics
)

// loadEnvFunc is swapped in tests.
var loadEnvFunc = godotenv.Load

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Stock headline sentiment over a period",
	Long: `headlines searches news for stock tickers over a date range, scores each
headline's sentiment and writes the results to CSV.

Long ranges are split into date windows so more than one page of results
can be collected; results are deduplicated and capped per run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFunc(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		base, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		log = base.With("run_id", uuid.NewString())
		stats = metrics.New()
		api.Version = version
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = log.Sync() }()
		path, _ := cmd.Flags().GetString("metrics-file")
		if path == "" {
			return nil
		}
		if err := stats.WriteTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		log.Debugw("metrics written", "path", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus textfile metrics here on exit")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "headlines %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}
		scorer, err := newScorer(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, port)

		fmt.Fprintf(cmd.OutOrStdout(), "Starting headlines API server on %s\n", addr)
		return api.NewServer(cfg, orch, scorer, stats, log).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config api.port)")
	addProviderFlags(serveCmd)
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		now := utils.NowET()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  headlines Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Market Status: %s\n", utils.MarketStatus(now))
		fmt.Fprintf(out, "  Time (ET):     %s\n", now.Format("2006-01-02 15:04 MST"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Provider:      %s\n", cfg.Provider.Name)
		fmt.Fprintf(out, "    Scorer:        %s\n", cfg.Sentiment.Scorer)
		fmt.Fprintf(out, "    Chunk days:    %d\n", cfg.Fetch.ChunkDays)
		fmt.Fprintf(out, "    Max results:   %d\n", cfg.Fetch.MaxResults)
		fmt.Fprintf(out, "    Output dir:    %s\n", cfg.Output.Dir)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "not set"
			switch {
			case k.IsSet && k.EnvVar != "":
				status = fmt.Sprintf("set (%s %s: %s)", k.Source, k.EnvVar, k.Masked)
			case k.IsSet:
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			case k.Required:
				status = "NOT SET (required by provider " + cfg.Provider.Name + ")"
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}
		if missing := config.MissingRequired(keys); len(missing) > 0 {
			fmt.Fprintf(out, "\n  Missing required keys: %s\n", strings.Join(missing, ", "))
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
