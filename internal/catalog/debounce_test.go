package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calepa/shoptill/internal/catalog"
)

func TestDebouncer_ShortQueriesNeverFire(t *testing.T) {
	d := catalog.NewDebouncer(300*time.Millisecond, 3)

	_, ok := d.Note("")
	assert.False(t, ok)

	_, ok = d.Note("la")
	assert.False(t, ok)

	_, ok = d.Note("  la  ")
	assert.False(t, ok, "whitespace does not count towards the minimum")

	_, ok = d.Note("lap")
	assert.True(t, ok)
}

func TestDebouncer_StaleGenerationsAreDiscarded(t *testing.T) {
	d := catalog.NewDebouncer(300*time.Millisecond, 3)

	first, ok := d.Note("lap")
	assert.True(t, ok)
	assert.True(t, d.Current(first))

	// The next keystroke supersedes the in-flight request, even before
	// its response lands.
	second, ok := d.Note("lapt")
	assert.True(t, ok)

	assert.False(t, d.Current(first), "a slow early search must not overwrite a later one")
	assert.True(t, d.Current(second))
}

func TestDebouncer_ShortQueryStillInvalidatesInFlight(t *testing.T) {
	d := catalog.NewDebouncer(300*time.Millisecond, 3)

	gen, ok := d.Note("lap")
	assert.True(t, ok)

	// Deleting back below the minimum must still cancel the pending
	// request for the longer prefix.
	_, ok = d.Note("la")
	assert.False(t, ok)
	assert.False(t, d.Current(gen))
}

func TestDebouncer_Defaults(t *testing.T) {
	d := catalog.NewDebouncer(0, 0)

	assert.Equal(t, 300*time.Millisecond, d.Delay())

	_, ok := d.Note("ab")
	assert.False(t, ok)

	_, ok = d.Note("abc")
	assert.True(t, ok)
}
