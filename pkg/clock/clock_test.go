package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_Sleep(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFake(start)

	var hooked []time.Duration
	clk.OnSleep = func(d time.Duration) { hooked = append(hooked, d) }

	clk.Sleep(time.Second)
	clk.Sleep(5 * time.Second)

	assert.Equal(t, start.Add(6*time.Second), clk.Now())
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second}, clk.Sleeps())
	assert.Equal(t, clk.Sleeps(), hooked)
}

func TestFake_SleepsIsCopy(t *testing.T) {
	clk := NewFake(time.Time{})
	clk.Sleep(time.Millisecond)

	sleeps := clk.Sleeps()
	sleeps[0] = time.Hour

	assert.Equal(t, time.Millisecond, clk.Sleeps()[0])
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	now := Real{}.Now()
	assert.False(t, now.Before(before))
}
