package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/headlines/pkg/utils"
)

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [tickers...]",
	Short: "Fetch and score headlines for many tickers into one CSV",
	Long: `Run the headline fetch for each ticker and append every scored headline
to a single CSV with a Ticker column. Tickers come from arguments, from
--file, or from the built-in large-cap list when neither is given.

Examples:
  headlines batch AAPL MSFT NVDA --period 30d --max 50
  headlines batch --file watchlist.txt --concurrency 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers, err := batchTickers(cmd, args)
		if err != nil {
			return err
		}

		period, _ := cmd.Flags().GetString("period")
		if period == "" {
			period = cfg.Fetch.DefaultPeriod
		}
		days, err := utils.ParsePeriod(period)
		if err != nil {
			return err
		}
		maxResults, _ := cmd.Flags().GetInt("max")
		if maxResults == 0 {
			maxResults = cfg.Fetch.MaxResults
		}
		if maxResults < 0 {
			return fmt.Errorf("--max must be positive, got %d", maxResults)
		}

		log.Infow("batch starting", "tickers", len(tickers), "period", period, "max", maxResults)
		return runBatch(cmd, tickers, days, maxResults, "all_headlines.csv")
	},
}

func init() {
	batchCmd.Flags().String("file", "", "file of tickers separated by commas or newlines")
	batchCmd.Flags().Int("concurrency", 0, "tickers fetched at once (default from config)")
	batchCmd.Flags().String("period", "", "look-back period such as 7d, 3m, 1y (default from config)")
	batchCmd.Flags().Int("max", 0, "maximum headlines per ticker (default from config)")
	batchCmd.Flags().String("out", "", "output CSV file (default all_headlines.csv)")
	batchCmd.Flags().Bool("append", false, "append to the output file instead of replacing it")
	addProviderFlags(batchCmd)
}

// batchTickers collects tickers from args and --file, falling back to LargeCapUniverse.
func batchTickers(cmd *cobra.Command, args []string) ([]string, error) {
	var tickers []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = utils.NormalizeTicker(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	for _, a := range args {
		if utils.IsBatchTicker(a) {
			for _, t := range utils.LargeCapUniverse {
				add(t)
			}
			continue
		}
		add(a)
	}

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open ticker file: %w", err)
		}
		defer f.Close()
		list, err := utils.ParseTickerList(f)
		if err != nil {
			return nil, fmt.Errorf("read ticker file %s: %w", path, err)
		}
		for _, t := range list {
			add(t)
		}
	}

	if len(tickers) == 0 {
		return append([]string(nil), utils.LargeCapUniverse...), nil
	}
	return tickers, nil
}
