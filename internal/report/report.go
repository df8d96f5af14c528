// Package report renders fetch and batch results as plain text for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/seenimoa/headlines/internal/batch"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

const width = 60

var (
	line     = strings.Repeat("═", width)
	thinLine = strings.Repeat("─", width)
)

// Headlines lists each scored headline with its score, oldest first as given.
func Headlines(scored []models.ScoredEntry) string {
	var sb strings.Builder
	for _, e := range scored {
		sb.WriteString(fmt.Sprintf("  %s  %+.4f  %s\n", utils.FormatDate(e.Date), e.Score, e.Headline))
	}
	return sb.String()
}

// Summary renders a ticker summary block.
func Summary(sum models.Summary) string {
	var sb strings.Builder

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s headline sentiment\n", sum.Ticker))
	if !sum.From.IsZero() {
		sb.WriteString(fmt.Sprintf("  %s to %s\n", utils.FormatDate(sum.From), utils.FormatDate(sum.To)))
	}
	sb.WriteString(line + "\n")

	if sum.Count == 0 {
		sb.WriteString("  No headlines found.\n")
		sb.WriteString(line + "\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  Headlines:       %s\n", humanize.Comma(int64(sum.Count))))
	sb.WriteString(fmt.Sprintf("  Average score:   %+.4f\n", sum.AverageScore))
	sb.WriteString(fmt.Sprintf("  Classification:  %s\n", sum.Classification))
	sb.WriteString(thinLine + "\n")
	sb.WriteString(fmt.Sprintf("  Positive %s | Neutral %s | Negative %s\n",
		humanize.Comma(int64(sum.PositiveCount)),
		humanize.Comma(int64(sum.NeutralCount)),
		humanize.Comma(int64(sum.NegativeCount)),
	))
	sb.WriteString(line + "\n")
	return sb.String()
}

// Batch renders one row per ticker followed by totals.
func Batch(rep batch.Report, output string) string {
	var sb strings.Builder

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  Batch results (%s tickers)\n", humanize.Comma(int64(len(rep.Results)))))
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  %-8s %8s %9s  %s\n", "Ticker", "Rows", "Average", "Class"))
	sb.WriteString(thinLine + "\n")
	for _, r := range rep.Results {
		if !r.Written {
			sb.WriteString(fmt.Sprintf("  %-8s %8s %9s  %s\n", r.Ticker, "0", "-", "no headlines"))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-8s %8s %+9.4f  %s\n",
			r.Ticker, humanize.Comma(int64(r.Summary.Count)), r.Summary.AverageScore, r.Summary.Classification))
	}
	sb.WriteString(thinLine + "\n")
	sb.WriteString(fmt.Sprintf("  %s rows from %s tickers in %s\n",
		humanize.Comma(int64(rep.Rows())), humanize.Comma(int64(rep.Written())), FormatDuration(rep.Elapsed)))
	if output != "" {
		sb.WriteString(fmt.Sprintf("  Output: %s\n", output))
	}
	sb.WriteString(line + "\n")
	return sb.String()
}

// FileSize formats a byte count for display.
func FileSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
