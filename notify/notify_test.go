package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/notify"
)

// manualClock implements authclient.Clock with hand-driven time.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	when    time.Time
	fn      func()
	fired   bool
	stopped bool
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) authclient.TimerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &manualTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, timer := range c.timers {
		if !timer.fired && !timer.stopped && !timer.when.After(c.now) {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// visibilityEvent is one listener callback.
type visibilityEvent struct {
	n       notify.Notification
	visible bool
}

type recordingListener struct {
	mu     sync.Mutex
	events []visibilityEvent
}

func (l *recordingListener) listen(n notify.Notification, visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, visibilityEvent{n: n, visible: visible})
}

func (l *recordingListener) all() []visibilityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]visibilityEvent, len(l.events))
	copy(out, l.events)
	return out
}

func TestDurationFor(t *testing.T) {
	assert.Equal(t, 8*time.Second, notify.DurationFor(notify.KindError))
	assert.Equal(t, 6*time.Second, notify.DurationFor(notify.KindWarning))
	assert.Equal(t, 4*time.Second, notify.DurationFor(notify.KindSuccess))
	assert.Equal(t, 4*time.Second, notify.DurationFor(notify.KindInfo))
}

func TestPolitenessFor(t *testing.T) {
	tests := []struct {
		kind     notify.Kind
		expected notify.Politeness
	}{
		{kind: notify.KindError, expected: notify.PolitenessAssertive},
		{kind: notify.KindWarning, expected: notify.PolitenessAssertive},
		{kind: notify.KindSuccess, expected: notify.PolitenessPolite},
		{kind: notify.KindInfo, expected: notify.PolitenessPolite},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, notify.PolitenessFor(tt.kind))
		})
	}
}

func TestManager_Show(t *testing.T) {
	t.Run("fills defaults from the kind", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))

		n := manager.Show(notify.KindError, "saving failed")
		assert.Equal(t, notify.KindError, n.Kind)
		assert.Equal(t, "saving failed", n.Message)
		assert.Equal(t, notify.PolitenessAssertive, n.Politeness)
		assert.Equal(t, 8*time.Second, n.Duration)
		assert.True(t, n.ShownAt.Equal(clock.Now()))

		current, ok := manager.Current()
		assert.True(t, ok)
		assert.Equal(t, n.ID, current.ID)
		assert.True(t, manager.Visible())
	})

	t.Run("auto dismisses after the duration", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))
		listener := &recordingListener{}
		defer manager.Subscribe(listener.listen)()

		manager.Show(notify.KindInfo, "saved")
		assert.True(t, manager.Visible())

		clock.Advance(3 * time.Second)
		assert.True(t, manager.Visible())

		clock.Advance(time.Second)
		assert.False(t, manager.Visible())

		events := listener.all()
		assert.Len(t, events, 2)
		assert.True(t, events[0].visible)
		assert.False(t, events[1].visible)
	})

	t.Run("explicit duration overrides the default", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))

		manager.Show(notify.KindInfo, "saved", notify.WithDuration(100*time.Millisecond))

		clock.Advance(100 * time.Millisecond)
		assert.False(t, manager.Visible())
	})

	t.Run("replacement cancels the previous timer", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))
		listener := &recordingListener{}
		defer manager.Subscribe(listener.listen)()

		first := manager.Show(notify.KindInfo, "first")
		clock.Advance(2 * time.Second)
		second := manager.Show(notify.KindInfo, "second")

		// The first notification's deadline passes. Its timer must not
		// touch the replacement.
		clock.Advance(2 * time.Second)
		current, ok := manager.Current()
		assert.True(t, ok)
		assert.Equal(t, second.ID, current.ID)
		assert.NotEqual(t, first.ID, current.ID)

		// The replacement still times out on its own schedule.
		clock.Advance(2 * time.Second)
		assert.False(t, manager.Visible())

		events := listener.all()
		assert.Len(t, events, 3)
		assert.Equal(t, first.ID, events[0].n.ID)
		assert.Equal(t, second.ID, events[1].n.ID)
		assert.Equal(t, second.ID, events[2].n.ID)
		assert.False(t, events[2].visible)
	})

	t.Run("sticky notifications never time out", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))

		manager.Show(notify.KindWarning, "offline", notify.Sticky())

		clock.Advance(time.Hour)
		assert.True(t, manager.Visible())

		manager.Close()
		assert.False(t, manager.Visible())
	})
}

func TestManager_Close(t *testing.T) {
	t.Run("close hides before the timer fires", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))
		listener := &recordingListener{}
		defer manager.Subscribe(listener.listen)()

		manager.Show(notify.KindError, "saving failed")
		manager.Close()
		assert.False(t, manager.Visible())

		// The stopped timer's deadline passing must not produce a second
		// hidden event.
		clock.Advance(8 * time.Second)

		events := listener.all()
		assert.Len(t, events, 2)
		assert.False(t, events[1].visible)
	})

	t.Run("close on an empty area is a no-op", func(t *testing.T) {
		manager := notify.NewManager(notify.WithClock(newManualClock(time.Now())))
		listener := &recordingListener{}
		defer manager.Subscribe(listener.listen)()

		manager.Close()

		assert.Empty(t, listener.all())
	})
}

func TestManager_Subscribe(t *testing.T) {
	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))
		listener := &recordingListener{}
		unsubscribe := manager.Subscribe(listener.listen)

		manager.Show(notify.KindInfo, "first")
		unsubscribe()
		unsubscribe()
		manager.Show(notify.KindInfo, "second")

		assert.Len(t, listener.all(), 1)
	})

	t.Run("panicking listener does not break the manager", func(t *testing.T) {
		clock := newManualClock(time.Now())
		manager := notify.NewManager(notify.WithClock(clock))

		defer manager.Subscribe(func(notify.Notification, bool) {
			panic("listener exploded")
		})()
		listener := &recordingListener{}
		defer manager.Subscribe(listener.listen)()

		manager.Show(notify.KindInfo, "saved")

		assert.True(t, manager.Visible())
		assert.Len(t, listener.all(), 1)
	})
}
