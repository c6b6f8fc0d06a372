// Package progress renders row progress with uiprogress.
package progress

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/gosuri/uiprogress"
)

// Tracker counts loaded rows against an optional known total.
type Tracker struct {
	p       *uiprogress.Progress
	bar     *uiprogress.Bar
	rows    atomic.Int64
	total   int64
	started bool
}

// New returns a tracker writing to out. A total below zero means the row
// count is unknown and the bar becomes an open-ended counter. uiprogress
// cannot draw a bar with a zero total, so an empty source gets the counter
// too.
func New(out io.Writer, label string, total int64) *Tracker {
	p := uiprogress.New()
	p.Out = out
	p.RefreshInterval = 200 * time.Millisecond

	t := &Tracker{p: p, total: total}
	if total > 0 {
		t.bar = p.AddBar(clampInt(total)).AppendCompleted().PrependElapsed()
	} else {
		t.bar = p.AddBar(math.MaxInt32).PrependElapsed()
		t.bar.Fill, t.bar.Head, t.bar.Empty = ' ', ' ', ' '
		t.bar.Width = 1
	}
	t.bar.PrependFunc(func(b *uiprogress.Bar) string {
		return label + ": "
	})
	t.bar.AppendFunc(func(b *uiprogress.Bar) string {
		if t.total >= 0 {
			return fmt.Sprintf("%d/%d rows", t.rows.Load(), t.total)
		}
		return fmt.Sprintf("%d rows", t.rows.Load())
	})
	return t
}

// Start begins rendering.
func (t *Tracker) Start() {
	if t.started {
		return
	}
	t.started = true
	t.p.Start()
}

// Add records n more rows.
func (t *Tracker) Add(n int) {
	rows := t.rows.Add(int64(n))
	if rows > int64(math.MaxInt32) {
		rows = int64(math.MaxInt32)
	}
	if t.total >= 0 && rows > t.total {
		rows = t.total
	}
	t.bar.Set(int(rows)) //nolint:errcheck // clamped above
}

// Rows is the number of rows recorded so far.
func (t *Tracker) Rows() int64 {
	return t.rows.Load()
}

// Stop flushes the final frame and stops rendering.
func (t *Tracker) Stop() {
	if !t.started {
		return
	}
	t.started = false
	t.p.Stop()
}

func clampInt(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
