package authclient_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authclient "github.com/goliatone/go-auth-client"
)

const testSigningKey = "test-signing-key"

// mintTestToken builds a signed credential carrying subject and expiry. The
// signature is irrelevant to the client, which never verifies, but a real
// one keeps the fixtures honest.
func mintTestToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	return mintTestTokenWithClaims(t, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
}

func mintTestTokenWithClaims(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("failed to mint test token: %v", err)
	}
	return token
}

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
	timer := &manualTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, timer)
	c.mu.Unlock()

	if d <= 0 {
		c.Advance(0)
	}
	return timer
}

// Advance moves the clock forward and fires every due timer synchronously.
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

// failingCredentialStore wraps a real store and fails selected operations.
type failingCredentialStore struct {
	inner    authclient.CredentialStore
	loadErr  error
	storeErr error
	clearErr error
}

func (s *failingCredentialStore) Load(ctx context.Context) (string, error) {
	if s.loadErr != nil {
		return "", s.loadErr
	}
	return s.inner.Load(ctx)
}

func (s *failingCredentialStore) Store(ctx context.Context, raw string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	return s.inner.Store(ctx, raw)
}

func (s *failingCredentialStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.inner.Clear(ctx)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []authclient.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event authclient.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []authclient.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authclient.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) EventTypes() []authclient.ActivityEventType {
	var types []authclient.ActivityEventType
	for _, event := range s.Events() {
		types = append(types, event.EventType)
	}
	return types
}

// recordingListener counts notifications and keeps the latest session.
type recordingListener struct {
	mu       sync.Mutex
	calls    int
	sessions []authclient.Session
}

func (l *recordingListener) listen(session authclient.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.sessions = append(l.sessions, session)
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *recordingListener) last() authclient.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) == 0 {
		return authclient.Session{}
	}
	return l.sessions[len(l.sessions)-1]
}

// captureLogger records formatted log lines for assertions.
type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) logf(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+fmt.Sprintf(format, args...))
}

func (l *captureLogger) Debug(format string, args ...any) { l.logf("DBG", format, args...) }
func (l *captureLogger) Info(format string, args ...any)  { l.logf("INF", format, args...) }
func (l *captureLogger) Warn(format string, args ...any)  { l.logf("WRN", format, args...) }
func (l *captureLogger) Error(format string, args ...any) { l.logf("ERR", format, args...) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}
