// Package notify implements the single slot notification area that session
// flows report into: at most one message is visible, a new one replaces the
// old, and every visible message either times out or is closed by the user.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	authclient "github.com/goliatone/go-auth-client"
)

// Kind classifies a notification and drives its default duration and
// screen reader politeness.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

// Politeness is the live-region channel a notification should use.
type Politeness string

const (
	// PolitenessAssertive interrupts the screen reader immediately.
	PolitenessAssertive Politeness = "assertive"
	// PolitenessPolite waits for the screen reader to go idle.
	PolitenessPolite Politeness = "polite"
)

const (
	defaultDuration        = 4 * time.Second
	defaultErrorDuration   = 8 * time.Second
	defaultWarningDuration = 6 * time.Second
)

// DurationFor returns the auto dismiss duration used when Show is not
// given an explicit one. Errors linger longest, warnings a bit less.
func DurationFor(kind Kind) time.Duration {
	switch kind {
	case KindError:
		return defaultErrorDuration
	case KindWarning:
		return defaultWarningDuration
	default:
		return defaultDuration
	}
}

// PolitenessFor maps urgent kinds to the assertive channel.
func PolitenessFor(kind Kind) Politeness {
	switch kind {
	case KindError, KindWarning:
		return PolitenessAssertive
	default:
		return PolitenessPolite
	}
}

// Notification is one visible message. ID distinguishes replacements so a
// timer armed for an earlier notification can never dismiss a newer one.
type Notification struct {
	ID         uuid.UUID
	Kind       Kind
	Message    string
	Politeness Politeness
	Duration   time.Duration
	Sticky     bool
	ShownAt    time.Time
}

// Listener observes visibility changes. visible false means the area just
// emptied and n is the notification that left.
type Listener func(n Notification, visible bool)

type subscription struct {
	id uuid.UUID
	fn Listener
}

// Option customizes manager construction.
type Option func(*Manager)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock authclient.Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger authclient.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// ShowOption adjusts a single Show call.
type ShowOption func(*Notification)

// WithDuration overrides the kind's default auto dismiss duration.
func WithDuration(d time.Duration) ShowOption {
	return func(n *Notification) {
		if d > 0 {
			n.Duration = d
		}
	}
}

// Sticky disables auto dismiss; the notification stays until closed.
func Sticky() ShowOption {
	return func(n *Notification) {
		n.Sticky = true
	}
}

// Manager owns the notification area. All methods are safe for concurrent
// use; listeners run outside the manager's lock.
type Manager struct {
	mu        sync.Mutex
	clock     authclient.Clock
	logger    authclient.Logger
	current   *Notification
	timer     authclient.TimerHandle
	listeners []subscription
}

// NewManager creates an empty notification area.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:  authclient.SystemClock(),
		logger: authclient.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Show replaces whatever is visible with a new notification and arms its
// auto dismiss timer. The replaced notification's timer is stopped so it
// cannot fire against the newcomer.
func (m *Manager) Show(kind Kind, message string, opts ...ShowOption) Notification {
	n := Notification{
		ID:         uuid.New(),
		Kind:       kind,
		Message:    message,
		Politeness: PolitenessFor(kind),
		Duration:   DurationFor(kind),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&n)
		}
	}

	m.mu.Lock()
	n.ShownAt = m.clock.Now()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	shown := n
	m.current = &shown
	if !n.Sticky {
		id := n.ID
		m.timer = m.clock.AfterFunc(n.Duration, func() {
			m.dismiss(id)
		})
	}
	subs := m.snapshotListeners()
	m.mu.Unlock()

	m.publish(subs, n, true)

	return n
}

// Close hides the current notification before its timer fires. Closing an
// empty area is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	n := *m.current
	m.current = nil
	subs := m.snapshotListeners()
	m.mu.Unlock()

	m.publish(subs, n, false)
}

// dismiss hides the notification with the given ID. A stale timer whose
// notification was already replaced or closed finds the ID gone and does
// nothing.
func (m *Manager) dismiss(id uuid.UUID) {
	m.mu.Lock()
	if m.current == nil || m.current.ID != id {
		m.mu.Unlock()
		return
	}
	n := *m.current
	m.current = nil
	m.timer = nil
	subs := m.snapshotListeners()
	m.mu.Unlock()

	m.publish(subs, n, false)
}

// Current returns the visible notification, when there is one.
func (m *Manager) Current() (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Notification{}, false
	}
	return *m.current, true
}

// Visible reports whether a notification is showing.
func (m *Manager) Visible() bool {
	_, ok := m.Current()
	return ok
}

// Subscribe registers a listener for visibility changes. The returned
// function removes the subscription; calling it twice is safe.
func (m *Manager) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	sub := subscription{id: uuid.New(), fn: fn}
	m.mu.Lock()
	m.listeners = append(m.listeners, sub)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, candidate := range m.listeners {
			if candidate.id == sub.id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// snapshotListeners expects m.mu held.
func (m *Manager) snapshotListeners() []subscription {
	if len(m.listeners) == 0 {
		return nil
	}
	subs := make([]subscription, len(m.listeners))
	copy(subs, m.listeners)
	return subs
}

func (m *Manager) publish(subs []subscription, n Notification, visible bool) {
	for _, sub := range subs {
		m.deliver(sub, n, visible)
	}
}

func (m *Manager) deliver(sub subscription, n Notification, visible bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("notification listener panicked: %v", r)
		}
	}()
	sub.fn(n, visible)
}
