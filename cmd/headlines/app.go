package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/headlines/internal/analysis/sentiment"
	"github.com/seenimoa/headlines/internal/datasource"
	"github.com/seenimoa/headlines/internal/infra"
	"github.com/seenimoa/headlines/internal/newsfetch"
	"github.com/seenimoa/headlines/internal/sink"
)

// addProviderFlags registers the flags that override provider and scorer config.
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "news provider: googlenews, finnhub or auto (default from config)")
	cmd.Flags().String("scorer", "", "sentiment scorer: vader or keyword (default from config)")
	cmd.Flags().Int("chunk-days", 0, "days per search window (default from config)")
}

// newOrchestrator builds the provider and fetch orchestrator from config and flags.
func newOrchestrator(cmd *cobra.Command) (*newsfetch.Orchestrator, error) {
	pcfg := cfg.Provider
	if name, _ := cmd.Flags().GetString("provider"); name != "" {
		pcfg.Name = name
	}
	provider, err := datasource.NewProvider(pcfg, log)
	if err != nil {
		return nil, err
	}

	chunk := cfg.Fetch.ChunkDays
	if n, _ := cmd.Flags().GetInt("chunk-days"); n > 0 {
		chunk = n
	}

	log.Debugw("provider ready", "provider", provider.Name(), "chunk_days", chunk)
	return newsfetch.New(provider, newsfetch.Options{
		ChunkDays: chunk,
		Retry: infra.RetryPolicy{
			MaxRetries: cfg.Fetch.MaxRetries,
			Initial:    cfg.Fetch.RetryInitial(),
		},
		Logger:  log,
		Metrics: stats,
	}), nil
}

// newScorer builds the sentiment scorer from config and flags.
func newScorer(cmd *cobra.Command) (sentiment.Scorer, error) {
	name := cfg.Sentiment.Scorer
	if s, _ := cmd.Flags().GetString("scorer"); s != "" {
		name = s
	}
	return sentiment.NewScorer(name)
}

// openSink opens the output CSV, truncating it unless appending.
func openSink(path string, appendTo bool) (*sink.CSVSink, error) {
	opts := sink.Options{IncludeTicker: cfg.Output.IncludeTicker}
	if appendTo {
		return sink.OpenFile(path, opts)
	}
	return sink.CreateFile(path, opts)
}

// outputPath resolves the CSV path: the --out flag if set, otherwise name inside dir.
func outputPath(cmd *cobra.Command, dir, name string) string {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// prompter reads interactive answers line by line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints question and returns the trimmed answer, or def when the answer is empty
// or input has ended.
func (p *prompter) ask(question, def string) string {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return def
	}
	if ans := strings.TrimSpace(p.in.Text()); ans != "" {
		return ans
	}
	return def
}

// askInt is ask for a positive integer.
func (p *prompter) askInt(question string, def int) (int, error) {
	ans := p.ask(question, strconv.Itoa(def))
	n, err := strconv.Atoi(ans)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid number %q: must be a positive integer", ans)
	}
	return n, nil
}
