package utils

import (
	"bufio"
	"io"
	"strings"
)

// BatchTicker is the reserved ticker value that selects the whole LargeCapUniverse.
const BatchTicker = "ALL"

// Common US ticker aliases and normalizations.
var tickerAliases = map[string]string{
	"GOOGLE":    "GOOGL",
	"ALPHABET":  "GOOGL",
	"FACEBOOK":  "META",
	"FB":        "META",
	"APPLE":     "AAPL",
	"MICROSOFT": "MSFT",
	"AMAZON":    "AMZN",
	"TESLA":     "TSLA",
	"NVIDIA":    "NVDA",
	"NETFLIX":   "NFLX",
	"BRK.B":     "BRK-B",
	"BRK/B":     "BRK-B",
}

// LargeCapUniverse is the fixed set of large-cap tickers used by batch mode.
var LargeCapUniverse = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "BRK-B", "TSLA", "AVGO", "LLY",
	"JPM", "V", "WMT", "XOM", "UNH", "MA", "ORCL", "COST", "HD", "PG",
	"JNJ", "NFLX", "BAC", "ABBV", "CRM", "KO", "CVX", "MRK", "AMD", "PEP",
}

// NormalizeTicker normalizes a user-input ticker to its canonical symbol.
// It handles aliases, uppercasing, whitespace and a leading "$".
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))

	// Remove $ prefix if present (common in chat)
	ticker = strings.TrimPrefix(ticker, "$")

	if canonical, ok := tickerAliases[ticker]; ok {
		return canonical
	}
	return ticker
}

// IsBatchTicker reports whether the input selects batch mode over LargeCapUniverse.
func IsBatchTicker(ticker string) bool {
	return NormalizeTicker(ticker) == BatchTicker
}

// ParseTickerList reads tickers separated by commas, whitespace or newlines.
// Lines starting with "#" are comments. Duplicates are dropped, first occurrence wins.
func ParseTickerList(r io.Reader) ([]string, error) {
	var tickers []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		for _, f := range fields {
			t := NormalizeTicker(f)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tickers, nil
}
