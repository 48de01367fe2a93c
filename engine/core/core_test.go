package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePool(t *testing.T) {
	p := NewNamePool(2)
	a := p.Acquire("a")
	b := p.Acquire(nil)
	c := p.Acquire("c")
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{a, b, c})
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "a", p.Owner(a))
	assert.True(t, p.InUse(b))

	require.NoError(t, p.Release(b))
	assert.False(t, p.InUse(b))
	assert.Nil(t, p.Owner(b))
	// lowest free name is handed out again
	assert.Equal(t, b, p.Acquire("b"))

	assert.Error(t, p.Release(0))
	assert.Error(t, p.Release(99))
	require.NoError(t, p.Release(c))
	assert.Error(t, p.Release(c))
	assert.False(t, p.InUse(0))
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	var order []string
	first, second := new(int), new(int)

	require.True(t, bus.Register(EVENT_CODE_RESIZED, first, func(EventContext) bool {
		order = append(order, "first")
		return false
	}))
	require.True(t, bus.Register(EVENT_CODE_RESIZED, second, func(c EventContext) bool {
		order = append(order, "second")
		return c.Data != nil
	}))
	assert.False(t, bus.Register(EVENT_CODE_RESIZED, first, func(EventContext) bool { return true }))

	assert.False(t, bus.Fire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, bus.Fire(EventContext{Type: EVENT_CODE_RESIZED, Data: &ResizeEvent{}}))
	assert.False(t, bus.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))

	assert.True(t, bus.Unregister(EVENT_CODE_RESIZED, first))
	assert.False(t, bus.Unregister(EVENT_CODE_RESIZED, first))
	order = nil
	bus.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.Equal(t, []string{"second"}, order)

	bus.Shutdown()
	order = nil
	bus.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.Empty(t, order)
}

func TestInput(t *testing.T) {
	bus := NewEventBus()
	var events []SystemEventCode
	bus.Register(EVENT_CODE_KEY_PRESSED, t, func(c EventContext) bool {
		events = append(events, c.Type)
		assert.Equal(t, KEY_W, c.Data.(*KeyEvent).KeyCode)
		return true
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, t, func(c EventContext) bool {
		events = append(events, c.Type)
		return true
	})

	in := NewInput(bus)
	in.ProcessKey(KEY_W, true)
	// repeated state changes nothing
	in.ProcessKey(KEY_W, true)
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.False(t, in.WasKeyDown(KEY_W))

	in.Update(0)
	assert.True(t, in.WasKeyDown(KEY_W))
	in.ProcessKey(KEY_W, false)
	assert.False(t, in.IsKeyDown(KEY_W))
	assert.Equal(t, []SystemEventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED}, events)

	in.ProcessKey(KEYS_MAX_KEYS, true)
	assert.False(t, in.IsKeyDown(KEYS_MAX_KEYS))
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClock()
	c.now = func() time.Time { return now }

	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.040)
	}
	fps, frameTime := m.Frame()
	assert.InDelta(t, 40, frameTime, 1e-9)
	// 30 frames of 40ms crossed one second after the 26th
	assert.Equal(t, float64(26), fps)
	assert.Equal(t, fps, m.FPS())
	assert.Equal(t, frameTime, m.FrameTime())
}

func TestSetLogLevel(t *testing.T) {
	SetLogLevel(LogLevelError)
	assert.Equal(t, "error", getLogger().GetLevel().String())
	SetLogLevel("chatty")
	assert.Equal(t, "info", getLogger().GetLevel().String())
	SetLogLevel(LogLevelDebug)
}
