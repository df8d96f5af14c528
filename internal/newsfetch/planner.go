package newsfetch

import (
	"time"

	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// Budget is the live result counter shared between a Cursor and the run that
// consumes its windows. The run increments Accepted; the cursor reads it when it
// emits the next window.
type Budget struct {
	Max      int
	Accepted int
}

// Remaining returns how many more entries the run may accept, never negative.
func (b *Budget) Remaining() int {
	if b.Accepted >= b.Max {
		return 0
	}
	return b.Max - b.Accepted
}

// Exhausted reports whether the budget is used up.
func (b *Budget) Exhausted() bool { return b.Accepted >= b.Max }

// WindowCap is the number of new entries a window may contribute:
// remaining / windowsLeft, where windowsLeft counts the current window, and never
// less than one.
func WindowCap(remaining, windowsLeft int) int {
	if windowsLeft < 1 {
		windowsLeft = 1
	}
	return max(1, remaining/windowsLeft)
}

// Plan splits a closed day range into consecutive closed windows of ChunkDays days.
// Window i covers [Start+i*ChunkDays, min(Start+i*ChunkDays+ChunkDays-1, End)], so
// every day of the range belongs to exactly one window.
type Plan struct {
	Start     time.Time
	End       time.Time
	ChunkDays int
}

// NewPlan truncates start and end to UTC days. chunkDays below one is treated as one.
// The caller validates that start is not after end.
func NewPlan(start, end time.Time, chunkDays int) Plan {
	if chunkDays < 1 {
		chunkDays = 1
	}
	return Plan{
		Start:     utils.TruncateDay(start),
		End:       utils.TruncateDay(end),
		ChunkDays: chunkDays,
	}
}

// Len returns the number of windows: floor(days/ChunkDays) + 1 where days is the
// distance between Start and End. An inverted plan has no windows.
func (p Plan) Len() int {
	days := utils.DaysBetween(p.Start, p.End)
	if days < 0 {
		return 0
	}
	return days/p.ChunkDays + 1
}

// window returns window i without bounds checks.
func (p Plan) window(i int) models.DateWindow {
	start := utils.AddDays(p.Start, i*p.ChunkDays)
	end := utils.AddDays(start, p.ChunkDays-1)
	if end.After(p.End) {
		end = p.End
	}
	return models.DateWindow{Start: start, End: end}
}

// windows materializes every window of the plan.
func (p Plan) windows() []models.DateWindow {
	n := p.Len()
	out := make([]models.DateWindow, n)
	for i := range n {
		out[i] = p.window(i)
	}
	return out
}

// Cursor walks the plan's windows, computing each window's cap from budget at the
// moment the window is emitted.
func (p Plan) Cursor(budget *Budget) *Cursor {
	return &Cursor{plan: p, n: p.Len(), budget: budget}
}

// Cursor is a lazy, restartable sequence of windows with caps.
type Cursor struct {
	plan   Plan
	n      int
	next   int
	budget *Budget
}

// Next returns the next window and its cap. ok is false once the windows are exhausted.
func (c *Cursor) Next() (w models.DateWindow, limit int, ok bool) {
	if c.next >= c.n {
		return models.DateWindow{}, 0, false
	}
	w = c.plan.window(c.next)
	limit = WindowCap(c.budget.Remaining(), c.n-c.next)
	c.next++
	return w, limit, true
}

// Index returns the 1-based position of the last emitted window.
func (c *Cursor) Index() int { return c.next }

// Total returns the number of windows in the plan.
func (c *Cursor) Total() int { return c.n }

// Reset restarts the sequence from the first window. The budget is left as is.
func (c *Cursor) Reset() { c.next = 0 }
