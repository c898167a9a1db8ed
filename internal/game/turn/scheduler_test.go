package turn_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormhole-warp/engine/internal/game/turn"
)

func TestManualScheduler_FIFO(t *testing.T) {
	s := turn.NewManualScheduler()
	var order []int
	s.After(time.Second, func() { order = append(order, 1) })
	s.After(time.Millisecond, func() { order = append(order, 2) })
	s.After(time.Hour, func() { order = append(order, 3) })

	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 3, s.Drain())
	assert.Equal(t, []int{1, 2, 3}, order, "durations are ignored; scheduling order wins")
	assert.Equal(t, 0, s.Pending())
}

func TestManualScheduler_Cancel(t *testing.T) {
	s := turn.NewManualScheduler()
	ran := false
	cancel := s.After(time.Second, func() { ran = true })
	cancel()
	cancel() // safe to call twice

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.Drain())
	assert.False(t, ran)
}

func TestManualScheduler_RunNext(t *testing.T) {
	s := turn.NewManualScheduler()
	assert.False(t, s.RunNext(), "empty queue runs nothing")

	count := 0
	s.After(0, func() { count++ })
	s.After(0, func() { count++ })
	assert.True(t, s.RunNext())
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, s.Pending())
}

// TestManualScheduler_DrainIncludesSelfScheduled verifies that callbacks
// queued while draining also run, which is how challenge ticks are driven.
func TestManualScheduler_DrainIncludesSelfScheduled(t *testing.T) {
	s := turn.NewManualScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			s.After(time.Millisecond, tick)
		}
	}
	s.After(time.Millisecond, tick)

	assert.Equal(t, 5, s.Drain())
	assert.Equal(t, 5, count)
}

func TestRealScheduler_FiresAndCancels(t *testing.T) {
	s := turn.NewRealScheduler()

	var wg sync.WaitGroup
	wg.Add(1)
	s.After(time.Millisecond, wg.Done)
	wg.Wait()

	var mu sync.Mutex
	ran := false
	cancel := s.After(50*time.Millisecond, func() {
		mu.Lock()
		ran = true
		mu.Unlock()
	})
	cancel()
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.False(t, ran, "canceled timer must not fire")
}
