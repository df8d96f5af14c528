// Package sink persists scored headlines as CSV.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// Column names.
const (
	ColTicker   = "Ticker"
	ColDate     = "Date"
	ColHeadline = "Headline"
	ColScore    = "Sentiment Score"
)

// Options controls the CSV layout.
type Options struct {
	// IncludeTicker adds a leading Ticker column. Multi-ticker files need it.
	IncludeTicker bool
}

// CSVSink appends scored headlines to a CSV stream. The header row is written once,
// before the first batch, unless the sink was opened over a non-empty file.
// It is safe for concurrent use; each batch is written contiguously.
type CSVSink struct {
	mu            sync.Mutex
	w             *csv.Writer
	closer        io.Closer
	opts          Options
	headerWritten bool
	rows          int
}

// NewCSVSink creates a sink over w.
func NewCSVSink(w io.Writer, opts Options) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w), opts: opts}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenFile opens path for appending, creating it if needed. An existing non-empty
// file is assumed to already carry the header.
func OpenFile(path string, opts Options) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output %s: %w", path, err)
	}

	s := NewCSVSink(f, opts)
	s.headerWritten = info.Size() > 0
	return s, nil
}

// CreateFile creates or truncates path and returns a sink over it.
func CreateFile(path string, opts Options) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return NewCSVSink(f, opts), nil
}

// Header returns the header row for the sink's layout.
func (s *CSVSink) Header() []string {
	if s.opts.IncludeTicker {
		return []string{ColTicker, ColDate, ColHeadline, ColScore}
	}
	return []string{ColDate, ColHeadline, ColScore}
}

// WriteBatch writes entries and flushes them. An empty batch writes nothing, not
// even the header.
func (s *CSVSink) WriteBatch(entries []models.ScoredEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		if err := s.w.Write(s.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		s.headerWritten = true
	}
	for _, e := range entries {
		if err := s.w.Write(s.record(e)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		s.rows++
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (s *CSVSink) record(e models.ScoredEntry) []string {
	date := utils.FormatDate(e.Date.UTC())
	score := strconv.FormatFloat(e.Score, 'f', -1, 64)
	if s.opts.IncludeTicker {
		return []string{e.Ticker, date, e.Headline, score}
	}
	return []string{date, e.Headline, score}
}

// Rows returns the number of data rows written by this sink.
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Flush flushes buffered rows.
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying writer when it is closable.
func (s *CSVSink) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadCSV parses a file written by CSVSink. Both layouts are accepted; the Ticker
// column is optional. Columns are located by header name.
func ReadCSV(r io.Reader) ([]models.ScoredEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{ColDate, ColHeadline, ColScore} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	tickerCol, hasTicker := idx[ColTicker]

	var out []models.ScoredEntry
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
		}

		date, err := utils.ParseDate(rec[idx[ColDate]])
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		score, err := strconv.ParseFloat(rec[idx[ColScore]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: score: %w", line, err)
		}
		e := models.ScoredEntry{Date: date, Headline: rec[idx[ColHeadline]], Score: score}
		if hasTicker {
			e.Ticker = rec[tickerCol]
		}
		out = append(out, e)
	}
	return out, nil
}
