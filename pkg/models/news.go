package models

import "time"

// NewsEntry represents a single headline returned by a search provider.
type NewsEntry struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Ticker      string    `json:"ticker,omitempty"` // ticker the entry was fetched for
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

// EntryKey is the identity of a NewsEntry for deduplication.
// Two entries with the same title and publish instant are the same entry.
type EntryKey struct {
	Title       string
	PublishedAt int64 // unix nanoseconds, UTC
}

// Key returns the deduplication fingerprint of the entry.
func (e NewsEntry) Key() EntryKey {
	return EntryKey{
		Title:       e.Title,
		PublishedAt: e.PublishedAt.UTC().UnixNano(),
	}
}

// DateWindow is a closed range of calendar days [Start, End].
// Both bounds are midnight UTC; End is the last day included in the window.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the window.
func (w DateWindow) Days() int {
	return int((w.End.Unix()-w.Start.Unix())/(24*60*60)) + 1
}

// Contains reports whether t falls on a day inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	d := t.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}
