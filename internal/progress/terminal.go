package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Terminal renders a "done/total" line to a writer, rewriting it in place.
// Close erases the line so the terminal is left clean.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	total  int
	done   int
	drawn  bool
	closed bool

	paint *color.Color
}

// NewTerminal creates a terminal tracker writing to w (normally os.Stderr).
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:     w,
		paint: color.New(color.Faint),
	}
}

func (t *Terminal) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.draw()
}

func (t *Terminal) Add(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.done += delta
	t.draw()
}

func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.drawn {
		// Erase the progress line.
		fmt.Fprint(t.w, "\r\033[K")
	}
}

// draw rewrites the progress line. Caller holds the lock.
func (t *Terminal) draw() {
	if t.closed {
		return
	}
	t.drawn = true
	fmt.Fprint(t.w, "\r\033[K")
	t.paint.Fprintf(t.w, "retrieving %d/%d", t.done, t.total)
}
