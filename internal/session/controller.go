package session

import (
	"sync"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// Listener is notified synchronously after every session transition.
type Listener func(transition domain.SessionTransition, state domain.SessionState)

// Controller is the only writer of the session. Its state is derived from
// the TokenStore on every read, so it cannot drift from the token.
//
// States are Anonymous and Authenticated(role). The transitions are login,
// logout and expiry-detected; expiry is noticed lazily by the first read
// after the token's exp has passed.
type Controller struct {
	mu    sync.Mutex // serialises transitions
	store *TokenStore

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int

	logger *zap.Logger
}

// NewController creates a session controller over store.
func NewController(store *TokenStore, logger *zap.Logger) *Controller {
	return &Controller{
		store:     store,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Login installs token. A token that does not decode leaves the session
// unchanged and reports false.
//
// Login only ever moves from Anonymous. Logging in over an authenticated
// session first ends it, so subscribers see logout followed by login.
func (c *Controller) Login(token string) (domain.SessionState, bool) {
	claims, ok := DecodeClaims(token, c.store.now())
	if !ok {
		c.logger.Warn("session: login rejected, token is malformed or expired")
		return c.State(), false
	}

	c.detectExpiry()

	c.mu.Lock()
	_, replaced := c.store.Claims()
	c.store.SetToken(token)
	c.mu.Unlock()

	if replaced {
		c.logger.Info("session: replacing the active session")
		c.notify(domain.TransitionLogout, domain.Anonymous())
	}

	state := domain.Authenticated(claims)
	c.logger.Info("session: logged in",
		zap.String("user_id", claims.UserID),
		zap.String("role", string(claims.Role)),
		zap.Time("expires_at", claims.ExpiresAt),
	)
	c.notify(domain.TransitionLogin, state)
	return state, true
}

// Logout clears the token. Logging out of an anonymous session is a no-op.
func (c *Controller) Logout() {
	c.mu.Lock()
	held := c.store.held()
	c.store.ClearToken()
	c.mu.Unlock()

	if !held {
		return
	}
	c.logger.Info("session: logged out")
	c.notify(domain.TransitionLogout, domain.Anonymous())
}

// State returns the current session state.
func (c *Controller) State() domain.SessionState {
	if claims, ok := c.store.Claims(); ok {
		return domain.Authenticated(claims)
	}
	c.detectExpiry()
	return domain.Anonymous()
}

// CurrentUser returns the authenticated identity.
func (c *Controller) CurrentUser() (domain.Claims, bool) {
	s := c.State()
	if !s.IsAuthenticated() {
		return domain.Claims{}, false
	}
	return *s.User, true
}

// IsAuthenticated reports whether the current token decodes.
func (c *Controller) IsAuthenticated() bool {
	return c.State().IsAuthenticated()
}

// Role returns the current role, or "" when anonymous.
func (c *Controller) Role() domain.Role {
	return c.State().Role()
}

// Token returns the bearer token while the session is authenticated.
func (c *Controller) Token() (string, bool) {
	if token, ok := c.store.Token(); ok {
		return token, true
	}
	c.detectExpiry()
	return "", false
}

// Subscribe registers fn and returns a function that removes it.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

// detectExpiry moves to Anonymous when a token is still held but no longer
// decodes. Only the first reader to notice fires the transition.
func (c *Controller) detectExpiry() {
	c.mu.Lock()
	if !c.store.held() {
		c.mu.Unlock()
		return
	}
	if _, ok := c.store.Claims(); ok {
		c.mu.Unlock()
		return
	}
	c.store.ClearToken()
	c.mu.Unlock()

	c.logger.Info("session: token expired, session ended")
	c.notify(domain.TransitionExpired, domain.Anonymous())
}

func (c *Controller) notify(t domain.SessionTransition, s domain.SessionState) {
	c.lmu.RLock()
	fns := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.RUnlock()

	for _, fn := range fns {
		fn(t, s)
	}
}
