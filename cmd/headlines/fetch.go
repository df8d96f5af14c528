package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/headlines/internal/analysis/sentiment"
	"github.com/seenimoa/headlines/internal/batch"
	"github.com/seenimoa/headlines/internal/report"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// fetchInputs are the resolved arguments of a fetch run.
type fetchInputs struct {
	Ticker string
	Period string
	Days   int
	Max    int
}

// resolveFetchInputs fills missing inputs, prompting when no ticker was given.
func resolveFetchInputs(cmd *cobra.Command, args []string, p *prompter) (fetchInputs, error) {
	period, _ := cmd.Flags().GetString("period")
	maxResults, _ := cmd.Flags().GetInt("max")
	if period == "" {
		period = cfg.Fetch.DefaultPeriod
	}
	if maxResults == 0 {
		maxResults = cfg.Fetch.MaxResults
	}

	in := fetchInputs{Period: period, Max: maxResults}
	if len(args) > 0 {
		in.Ticker = args[0]
	} else {
		in.Ticker = p.ask(fmt.Sprintf("Enter a stock ticker (e.g., GOOGL, TSLA, or %s): ", utils.BatchTicker), "")
		if !cmd.Flags().Changed("period") {
			in.Period = p.ask(fmt.Sprintf("Enter the period for news (e.g., 1d, 7d, 3m, 1y) [%s]: ", in.Period), in.Period)
		}
		if !cmd.Flags().Changed("max") {
			n, err := p.askInt(fmt.Sprintf("Enter the maximum number of headlines [%d]: ", in.Max), in.Max)
			if err != nil {
				return in, err
			}
			in.Max = n
		}
	}

	in.Ticker = utils.NormalizeTicker(in.Ticker)
	if in.Ticker == "" {
		return in, fmt.Errorf("a ticker is required")
	}
	if in.Max <= 0 {
		return in, fmt.Errorf("--max must be positive, got %d", in.Max)
	}
	days, err := utils.ParsePeriod(in.Period)
	if err != nil {
		return in, err
	}
	in.Days = days
	return in, nil
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker]",
	Short: "Fetch and score headlines for a ticker",
	Long: `Fetch news headlines for a ticker over a period, score each headline's
sentiment, print them with an overall classification and save them to CSV.

Without a ticker argument the command asks for the ticker, period and
maximum number of headlines. The ticker ALL runs every ticker of the
built-in large-cap list into one file.

Examples:
  headlines fetch AAPL --period 3m --max 200
  headlines fetch TSLA --recent --period 1d
  headlines fetch ALL --period 30d --max 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := resolveFetchInputs(cmd, args, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		if utils.IsBatchTicker(in.Ticker) {
			return runBatch(cmd, utils.LargeCapUniverse, in.Days, in.Max, "all_headlines.csv")
		}
		return runFetch(cmd, in)
	},
}

func init() {
	fetchCmd.Flags().String("period", "", "look-back period such as 7d, 3m, 1y, 2yr (default from config)")
	fetchCmd.Flags().Int("max", 0, "maximum number of headlines (default from config)")
	fetchCmd.Flags().String("out", "", "output CSV file (default <TICKER>_headlines.csv)")
	fetchCmd.Flags().Bool("append", false, "append to the output file instead of replacing it")
	fetchCmd.Flags().Bool("recent", false, "single recency search instead of a windowed historical search")
	addProviderFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, in fetchInputs) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	orch, err := newOrchestrator(cmd)
	if err != nil {
		return err
	}
	scorer, err := newScorer(cmd)
	if err != nil {
		return err
	}

	recent, _ := cmd.Flags().GetBool("recent")
	var entries []models.NewsEntry
	if recent {
		entries, err = orch.FetchRecent(ctx, in.Ticker, in.Period, in.Max)
	} else {
		start, end := utils.RangeForPeriod(time.Now().UTC(), in.Days)
		entries, err = orch.FetchHistorical(ctx, in.Ticker, start, end, in.Max)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No news found for %s in the last %s.\n", in.Ticker, in.Period)
		return nil
	}

	scored := sentiment.ScoreEntries(scorer, entries)
	fmt.Fprint(out, report.Headlines(scored))
	fmt.Fprint(out, report.Summary(sentiment.Summarize(in.Ticker, scored)))

	path := outputPath(cmd, cfg.Output.Dir, in.Ticker+"_headlines.csv")
	appendTo, _ := cmd.Flags().GetBool("append")
	s, err := openSink(path, appendTo)
	if err != nil {
		return err
	}
	if err := s.WriteBatch(scored); err != nil {
		s.Close()
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}

	size := ""
	if info, err := os.Stat(path); err == nil {
		size = " (" + report.FileSize(info.Size()) + ")"
	}
	fmt.Fprintf(out, "Saved %d headlines to %s%s\n", len(scored), path, size)
	return nil
}

// runBatch runs tickers through the batch runner into one CSV.
func runBatch(cmd *cobra.Command, tickers []string, days, maxPerTicker int, defaultName string) error {
	orch, err := newOrchestrator(cmd)
	if err != nil {
		return err
	}
	scorer, err := newScorer(cmd)
	if err != nil {
		return err
	}

	path := outputPath(cmd, cfg.Output.Dir, defaultName)
	appendTo, _ := cmd.Flags().GetBool("append")
	s, err := openSink(path, appendTo)
	if err != nil {
		return err
	}

	concurrency := cfg.Batch.Concurrency
	if cmd.Flags().Lookup("concurrency") != nil {
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			concurrency = n
		}
	}

	runner := batch.New(orch, scorer, s, batch.Options{
		Concurrency: concurrency,
		Logger:      log,
		Metrics:     stats,
	})
	start, end := utils.RangeForPeriod(time.Now().UTC(), days)
	rep, runErr := runner.RunAll(cmd.Context(), tickers, start, end, maxPerTicker)
	closeErr := s.Close()

	fmt.Fprint(cmd.OutOrStdout(), report.Batch(rep, path))
	if runErr != nil {
		return runErr
	}
	return closeErr
}
