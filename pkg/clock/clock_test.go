package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFunc(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	clk := Func(func() time.Time { return fixed })
	assert.True(t, fixed.Equal(clk.Now()))
}

func TestFixedOffset(t *testing.T) {
	clk := FixedOffset("CST", -6*3600)

	now := clk.Now()
	zone, offset := now.Zone()
	assert.Equal(t, "CST", zone)
	assert.Equal(t, -6*3600, offset)

	// Same instant, different calendar rendering.
	assert.WithinDuration(t, time.Now(), now, time.Second)
}
