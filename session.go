package authclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Session is the client's current belief about logged-in identity, a pure
// projection of the stored credential at a point in time. The zero value
// means no authenticated identity.
type Session struct {
	UserID string `json:"user_id,omitempty"`
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// GetUserID returns the subject identity, empty when logged out.
func (s Session) GetUserID() string {
	return s.UserID
}

// GetUserUUID parses the subject as a UUID.
func (s Session) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s Session) String() string {
	if !s.Authenticated() {
		return "session(anonymous)"
	}
	return fmt.Sprintf("session(user=%s)", s.UserID)
}

// SessionListener receives the projected session after a state change.
type SessionListener func(session Session)

type sessionSubscription struct {
	id uuid.UUID
	fn SessionListener
}

// SessionStoreOption customizes session store construction.
type SessionStoreOption func(*SessionStore)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock Clock) SessionStoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDecoder overrides how raw credentials become claims.
func WithDecoder(decoder CredentialDecoder) SessionStoreOption {
	return func(s *SessionStore) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish session events.
func WithActivitySink(sink ActivitySink) SessionStoreOption {
	return func(s *SessionStore) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// WithSettleDelay makes Validate wait before deciding, smoothing the gap
// between a checking indicator and a redirect. Zero disables it.
func WithSettleDelay(d time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.settleDelay = d
		}
	}
}

// SessionStore owns the lifecycle of the bearer credential. It is the only
// writer of the credential slot and the single source of truth for "am I
// logged in"; construct one per application and hand it to consumers
// explicitly.
type SessionStore struct {
	mu           sync.Mutex
	creds        CredentialStore
	decoder      CredentialDecoder
	clock        Clock
	logger       Logger
	activitySink ActivitySink
	settleDelay  time.Duration
	session      Session
	listeners    []sessionSubscription
}

// NewSessionStore creates a session store over the given credential slot.
func NewSessionStore(creds CredentialStore, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		creds:        creds,
		decoder:      CredentialDecoderFunc(DecodeCredential),
		clock:        SystemClock(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Current returns the in-memory projection without touching storage.
func (s *SessionStore) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Login decodes raw and persists it, switching the session to the decoded
// subject. A credential that cannot be decoded or is already expired leaves
// every piece of state untouched and is reported to the caller; a previous
// login's credential is overwritten unconditionally.
func (s *SessionStore) Login(ctx context.Context, raw string) (Session, error) {
	claims, err := s.decoder.Decode(raw)
	if err != nil {
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"reason": "malformed credential"},
		})
		return Session{}, err
	}

	s.mu.Lock()
	if claims.Expired(s.clock.Now()) {
		s.mu.Unlock()
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			UserID:    claims.Subject,
			Metadata:  map[string]any{"reason": "expired credential"},
		})
		return Session{}, ErrTokenExpired.WithMetadata(map[string]any{
			"expires_at": claims.ExpiresAtMillis(),
		})
	}

	if err := s.creds.Store(ctx, raw); err != nil {
		s.mu.Unlock()
		return Session{}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to persist credential")
	}

	s.session = Session{UserID: claims.Subject}
	session := s.session
	subs := s.snapshotListeners()
	s.mu.Unlock()

	s.notify(subs, session)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    session.UserID,
	})

	return session, nil
}

// Logout clears the credential slot and resets the session. Logging out an
// already logged-out store succeeds and still notifies subscribers.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.creds.Clear(ctx); err != nil {
		s.mu.Unlock()
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to clear credential")
	}

	prev := s.session
	s.session = Session{}
	session := s.session
	subs := s.snapshotListeners()
	s.mu.Unlock()

	s.notify(subs, session)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    prev.UserID,
	})

	return nil
}

// Validate rebuilds the projection from whatever the slot holds. An empty
// slot means logged out. An undecodable or expired credential is purged,
// while a live one re-establishes the subject. Decode and expiry problems
// found here self-heal silently; only storage failures and ctx cancellation
// surface. Subscribers hear about it only when the projected session changed.
func (s *SessionStore) Validate(ctx context.Context) (Session, error) {
	if err := waitFor(ctx, s.clock, s.settleDelay); err != nil {
		return s.Current(), err
	}

	s.mu.Lock()
	prev := s.session

	raw, err := s.creds.Load(ctx)
	if err != nil {
		if !IsNoCredentialError(err) {
			s.mu.Unlock()
			return prev, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read credential")
		}
		s.session = Session{}
		return s.finishValidate(ctx, prev, ActivityEvent{})
	}

	claims, decodeErr := s.decoder.Decode(raw)
	if decodeErr != nil {
		if err := s.creds.Clear(ctx); err != nil {
			s.session = Session{}
			s.mu.Unlock()
			return Session{}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to purge corrupt credential")
		}
		s.session = Session{}
		return s.finishValidate(ctx, prev, ActivityEvent{
			EventType: ActivityEventPurgeCorrupt,
			UserID:    prev.UserID,
		})
	}

	if claims.Expired(s.clock.Now()) {
		if err := s.creds.Clear(ctx); err != nil {
			s.session = Session{}
			s.mu.Unlock()
			return Session{}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to purge expired credential")
		}
		s.session = Session{}
		return s.finishValidate(ctx, prev, ActivityEvent{
			EventType: ActivityEventPurgeExpired,
			UserID:    claims.Subject,
			Metadata:  map[string]any{"expires_at": claims.ExpiresAtMillis()},
		})
	}

	s.session = Session{UserID: claims.Subject}
	return s.finishValidate(ctx, prev, ActivityEvent{})
}

// finishValidate publishes the outcome of a validation pass. It expects
// s.mu held and releases it. An empty event means nothing was purged; a
// changed projection then counts as a rebuild.
func (s *SessionStore) finishValidate(ctx context.Context, prev Session, event ActivityEvent) (Session, error) {
	session := s.session
	changed := session != prev

	var subs []sessionSubscription
	if changed {
		subs = s.snapshotListeners()
	}
	s.mu.Unlock()

	if changed {
		s.notify(subs, session)
	}

	if event.EventType != "" {
		s.recordActivity(ctx, event)
	} else if changed {
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRebuild,
			UserID:    session.UserID,
		})
	}

	return session, nil
}

// Subscribe registers a listener invoked once per state-changing operation.
// The returned function removes the subscription; calling it twice is safe.
func (s *SessionStore) Subscribe(fn SessionListener) func() {
	if fn == nil {
		return func() {}
	}

	sub := sessionSubscription{id: uuid.New(), fn: fn}
	s.mu.Lock()
	s.listeners = append(s.listeners, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, candidate := range s.listeners {
			if candidate.id == sub.id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// snapshotListeners expects s.mu held.
func (s *SessionStore) snapshotListeners() []sessionSubscription {
	if len(s.listeners) == 0 {
		return nil
	}
	subs := make([]sessionSubscription, len(s.listeners))
	copy(subs, s.listeners)
	return subs
}

func (s *SessionStore) notify(subs []sessionSubscription, session Session) {
	for _, sub := range subs {
		s.dispatch(sub, session)
	}
}

// dispatch shields the store from listener panics: subscribers only ever
// see a session value, never an error or a crash from a sibling listener.
func (s *SessionStore) dispatch(sub sessionSubscription, session Session) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session listener panicked: %v", r)
		}
	}()
	sub.fn(session)
}

func (s *SessionStore) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}

	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session activity sink error: %v", err)
	}
}
