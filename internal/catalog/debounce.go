package catalog

import (
	"strings"
	"time"
)

const (
	defaultDebounce = 300 * time.Millisecond
	defaultMinChars = 3
)

// Debouncer collapses rapid autocomplete keystrokes into a single search
// request. Every keystroke bumps a generation; the caller schedules a timer
// for Delay and only fires the search if the generation is still current
// when the timer lands. Responses tagged with a superseded generation are
// discarded, so a slow early search can never overwrite a later one.
type Debouncer struct {
	delay    time.Duration
	minChars int
	gen      uint64
}

func NewDebouncer(delay time.Duration, minChars int) *Debouncer {
	if delay <= 0 {
		delay = defaultDebounce
	}

	if minChars <= 0 {
		minChars = defaultMinChars
	}

	return &Debouncer{delay: delay, minChars: minChars}
}

// Note records a keystroke and returns its generation. ok is false when the
// query is too short to search; the generation still advances so any
// in-flight request for a longer prefix is invalidated.
func (d *Debouncer) Note(query string) (gen uint64, ok bool) {
	d.gen++

	return d.gen, len([]rune(strings.TrimSpace(query))) >= d.minChars
}

// Current reports whether gen is still the latest generation.
func (d *Debouncer) Current(gen uint64) bool {
	return gen == d.gen
}

// Delay is the quiet period to wait after a keystroke before firing.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
