package newsfetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

func d(s string) time.Time {
	t, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowCap(t *testing.T) {
	tests := []struct {
		remaining, left, want int
	}{
		{100, 4, 25},
		{10, 3, 3},
		{2, 5, 1}, // rounds to zero, forced to one
		{0, 3, 1},
		{7, 1, 7},
		{7, 0, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowCap(tt.remaining, tt.left), "WindowCap(%d, %d)", tt.remaining, tt.left)
	}
}

func TestPlanCoversRangeWithoutGaps(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		chunk     int
		wantCount int
	}{
		{"single day", "2024-01-01", "2024-01-01", 30, 1},
		{"exact multiple", "2024-01-01", "2024-01-31", 10, 4}, // 30 days apart
		{"partial tail", "2024-01-01", "2024-03-15", 30, 3},
		{"daily", "2024-02-26", "2024-03-02", 1, 6},
		{"chunk larger than range", "2024-01-01", "2024-01-05", 365, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(d(tt.start), d(tt.end), tt.chunk)
			windows := p.windows()
			require.Len(t, windows, tt.wantCount)
			assert.Equal(t, tt.wantCount, p.Len())

			assert.Equal(t, d(tt.start), windows[0].Start)
			assert.Equal(t, d(tt.end), windows[len(windows)-1].End)

			covered := 0
			for i, w := range windows {
				assert.False(t, w.Start.After(w.End), "window %d inverted", i)
				assert.LessOrEqual(t, w.Days(), tt.chunk)
				if i > 0 {
					assert.Equal(t, utils.AddDays(windows[i-1].End, 1), w.Start, "gap or overlap before window %d", i)
				}
				covered += w.Days()
			}
			assert.Equal(t, utils.DaysBetween(d(tt.start), d(tt.end))+1, covered)
		})
	}
}

func TestPlanCoversRangeLongerThanDuration(t *testing.T) {
	end := d("2024-01-01")
	start := end.AddDate(-300, 0, 0)
	p := NewPlan(start, end, 30)

	days := utils.DaysBetween(start, end)
	require.Greater(t, days, 292*365)
	assert.Equal(t, days/30+1, p.Len())

	windows := p.windows()
	require.NotEmpty(t, windows)
	assert.Equal(t, start, windows[0].Start)
	assert.Equal(t, end, windows[len(windows)-1].End)
	for i := 1; i < len(windows); i++ {
		require.Equal(t, utils.AddDays(windows[i-1].End, 1), windows[i].Start, "gap or overlap before window %d", i)
	}

	c := p.Cursor(&Budget{Max: 10})
	var last models.DateWindow
	for {
		w, _, ok := c.Next()
		if !ok {
			break
		}
		last = w
	}
	assert.Equal(t, end, last.End)
}

func TestPlanTruncatesToDays(t *testing.T) {
	p := NewPlan(time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC), time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC), 0)
	assert.Equal(t, 1, p.ChunkDays)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, d("2024-01-01"), p.Start)
}

func TestPlanInverted(t *testing.T) {
	p := NewPlan(d("2024-02-01"), d("2024-01-01"), 30)
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.windows())
	_, _, ok := p.Cursor(&Budget{Max: 10}).Next()
	assert.False(t, ok)
}

func TestCursorRecomputesCapFromLiveBudget(t *testing.T) {
	p := NewPlan(d("2024-01-01"), d("2024-01-04"), 1) // 4 windows
	budget := &Budget{Max: 12}
	c := p.Cursor(budget)

	w, limit, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, d("2024-01-01"), w.Start)
	assert.Equal(t, 3, limit) // 12/4

	budget.Accepted = 1 // first window under-delivered
	_, limit, _ = c.Next()
	assert.Equal(t, 3, limit) // 11/3

	budget.Accepted = 10
	_, limit, _ = c.Next()
	assert.Equal(t, 1, limit) // 2/2

	budget.Accepted = 12
	w, limit, ok = c.Next()
	require.True(t, ok)
	assert.Equal(t, d("2024-01-04"), w.End)
	assert.Equal(t, 1, limit) // exhausted, still forced to one

	_, _, ok = c.Next()
	assert.False(t, ok)

	c.Reset()
	w, _, ok = c.Next()
	require.True(t, ok)
	assert.Equal(t, d("2024-01-01"), w.Start)
	assert.Equal(t, 1, c.Index())
	assert.Equal(t, 4, c.Total())
}

func TestBudget(t *testing.T) {
	b := &Budget{Max: 3}
	assert.Equal(t, 3, b.Remaining())
	assert.False(t, b.Exhausted())
	b.Accepted = 5
	assert.Equal(t, 0, b.Remaining())
	assert.True(t, b.Exhausted())
}
