package newsfetch

import "github.com/seenimoa/headlines/pkg/models"

// Deduplicator remembers which entries a run has already accepted. Identity is the
// (title, publish instant) pair; links are ignored because providers do not keep them
// stable across queries.
type Deduplicator struct {
	seen map[models.EntryKey]struct{}
}

// NewDeduplicator returns an empty set.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[models.EntryKey]struct{})}
}

// Add records e and reports whether it was new.
func (d *Deduplicator) Add(e models.NewsEntry) bool {
	k := e.Key()
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// size returns the number of distinct entries added.
func (d *Deduplicator) size() int { return len(d.seen) }
