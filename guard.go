package authclient

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// GuardState is the verdict a route guard holds about the current view.
type GuardState string

const (
	// GuardPending means no verdict yet; render nothing or a progress hint.
	GuardPending GuardState = "pending"
	// GuardAuthorized means the session was validated and is authenticated.
	GuardAuthorized GuardState = "authorized"
	// GuardUnauthorized means the view should redirect to login.
	GuardUnauthorized GuardState = "unauthorized"
)

const textCodeInvalidGuardTransition = "INVALID_GUARD_TRANSITION"

// ErrInvalidGuardTransition indicates an attempt to move a guard along an
// edge the state graph does not allow, e.g. out of a settled state.
var ErrInvalidGuardTransition = goerrors.New(
	"invalid guard state transition",
	goerrors.CategoryValidation,
).WithTextCode(textCodeInvalidGuardTransition).WithCode(goerrors.CodeBadRequest)

// guardTransitions is the allowed edge set. Settled states are terminal:
// a guard never re-enters pending and never flips between verdicts.
var guardTransitions = map[GuardState]map[GuardState]struct{}{
	GuardPending: {
		GuardAuthorized:   {},
		GuardUnauthorized: {},
	},
	GuardAuthorized:   {},
	GuardUnauthorized: {},
}

// SessionValidator is the slice of the session store a guard needs.
type SessionValidator interface {
	Validate(ctx context.Context) (Session, error)
}

// GuardHook observes a settled transition. Hooks run outside the guard's
// lock and after the state is visible to readers.
type GuardHook func(from, to GuardState, session Session)

// GuardOption customizes route guard construction.
type GuardOption func(*RouteGuard)

// WithGuardLogger overrides the default logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *RouteGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardHook appends a transition hook.
func WithGuardHook(hook GuardHook) GuardOption {
	return func(g *RouteGuard) {
		if hook != nil {
			g.hooks = append(g.hooks, hook)
		}
	}
}

// RouteGuard gates one protected view. It starts pending, resolves exactly
// once against the session store, and then answers from memory. Create a
// fresh guard per navigation; a settled guard is deliberately immutable.
type RouteGuard struct {
	mu        sync.Mutex
	validator SessionValidator
	logger    Logger
	hooks     []GuardHook
	state     GuardState
	session   Session
}

// NewRouteGuard creates a pending guard over the given validator.
func NewRouteGuard(validator SessionValidator, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		validator: validator,
		logger:    defLogger{},
		state:     GuardPending,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// State returns the guard's current verdict.
func (g *RouteGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Settled reports whether the guard has left the pending state.
func (g *RouteGuard) Settled() bool {
	return g.State() != GuardPending
}

// Session returns the session captured when the guard settled authorized,
// zero otherwise.
func (g *RouteGuard) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Resolve validates the session and settles the guard: an authenticated
// session authorizes the view, anything else settles unauthorized. A
// validation failure fails closed to unauthorized and is still returned so
// the caller can surface it. Cancelled contexts leave the guard pending
// with nothing rendered; a settled guard returns its verdict immediately
// and never validates again.
func (g *RouteGuard) Resolve(ctx context.Context) (GuardState, error) {
	if g.validator == nil {
		return GuardPending, goerrors.New(
			"route guard has no session validator",
			goerrors.CategoryBadInput,
		).WithCode(goerrors.CodeBadRequest)
	}

	g.mu.Lock()
	if g.state != GuardPending {
		state := g.state
		g.mu.Unlock()
		return state, nil
	}
	g.mu.Unlock()

	session, err := g.validator.Validate(ctx)
	if err != nil && ctx.Err() != nil {
		// The view went away before a verdict; a later Resolve may settle.
		return GuardPending, ctx.Err()
	}

	to := GuardUnauthorized
	if err == nil && session.Authenticated() {
		to = GuardAuthorized
	}

	g.mu.Lock()
	if g.state != GuardPending {
		// A concurrent Resolve won the race; its verdict stands.
		state := g.state
		g.mu.Unlock()
		return state, nil
	}

	from := g.state
	if terr := g.transitionLocked(to); terr != nil {
		g.mu.Unlock()
		return from, terr
	}
	if to == GuardAuthorized {
		g.session = session
	}
	settled := g.session
	hooks := make([]GuardHook, len(g.hooks))
	copy(hooks, g.hooks)
	g.mu.Unlock()

	for _, hook := range hooks {
		g.runHook(hook, from, to, settled)
	}

	if err != nil {
		g.logger.Warn("route guard failed closed: %v", err)
		return to, err
	}

	return to, nil
}

// transitionLocked expects g.mu held.
func (g *RouteGuard) transitionLocked(to GuardState) error {
	allowed, ok := guardTransitions[g.state]
	if !ok {
		return ErrInvalidGuardTransition.WithMetadata(map[string]any{
			"from": string(g.state),
			"to":   string(to),
		})
	}
	if _, ok := allowed[to]; !ok {
		return ErrInvalidGuardTransition.WithMetadata(map[string]any{
			"from": string(g.state),
			"to":   string(to),
		})
	}

	g.state = to
	return nil
}

func (g *RouteGuard) runHook(hook GuardHook, from, to GuardState, session Session) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("guard hook panicked: %v", r)
		}
	}()
	hook(from, to, session)
}
