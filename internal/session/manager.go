// Package session owns the authenticated/unauthenticated state of a running
// client and the credential that backs it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"golang.org/x/oauth2"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Gateway is the part of the API client the manager needs.
type Gateway interface {
	WhoAmI(ctx context.Context) (*apiclient.User, error)
	Logout(ctx context.Context, token string) error
}

// State is a point-in-time view of the session. Credential is set only when
// Status is Authenticated.
type State struct {
	Status     Status
	Credential *credential.Credential
	Generation uint64
	ID         uuid.UUID
}

func (s State) Authenticated() bool {
	return s.Status == Authenticated
}

type Manager struct {
	store   credential.Store
	gateway Gateway
	now     func() time.Time

	// writes serializes store writes with the state change they back.
	writes sync.Mutex

	mu          sync.RWMutex
	status      Status
	cred        *credential.Credential
	generation  uint64
	id          uuid.UUID
	subscribers []func(State)
}

func NewManager(store credential.Store, gateway Gateway) *Manager {
	return &Manager{
		store:   store,
		gateway: gateway,
		now:     time.Now,
		status:  Booting,
		id:      uuid.New(),
	}
}

// Boot resolves the initial state from the credential store. It never
// touches the network and never leaves the manager in Booting.
func (m *Manager) Boot(ctx context.Context) State {
	log := config.WithContext(ctx)
	m.writes.Lock()
	defer m.writes.Unlock()

	cred, err := m.store.Load()
	switch {
	case errors.Is(err, credential.ErrNoCredential):
		cred = nil
	case err != nil:
		log.WithError(err).Warn("Failed to read stored credential")
		cred = nil
	case !cred.Complete():
		cred = nil
	case m.expired(cred.Token):
		log.Info("Stored credential has expired")
		if err := m.store.Clear(); err != nil {
			log.WithError(err).Warn("Failed to clear expired credential")
		}
		cred = nil
	}

	if cred != nil {
		return m.transition(Authenticated, cred)
	}
	return m.transition(Unauthenticated, nil)
}

// Verify asks the server who owns the current token. Only an explicit
// authentication failure signs the user out; network and server errors keep
// the optimistic state.
func (m *Manager) Verify(ctx context.Context) (State, error) {
	snap := m.Snapshot()
	if !snap.Authenticated() {
		return snap, nil
	}
	log := config.WithContext(ctx).WithField("session", snap.ID.String())

	_, err := m.gateway.WhoAmI(ctx)
	if err == nil {
		return m.Snapshot(), nil
	}
	if !errors.Is(err, apiclient.ErrAuth) {
		log.WithError(err).Warn("Session verification failed; keeping stored credential")
		return m.Snapshot(), err
	}

	log.Info("Server rejected stored credential")
	return m.failClosed(snap.Generation), err
}

// Login persists cred and only then reports the session as authenticated.
func (m *Manager) Login(cred credential.Credential) (State, error) {
	if !cred.Complete() {
		return m.Snapshot(), credential.ErrIncompleteCredential
	}
	m.writes.Lock()
	defer m.writes.Unlock()
	if err := m.store.Save(cred); err != nil {
		return m.Snapshot(), err
	}
	c := cred
	return m.transition(Authenticated, &c), nil
}

// Logout signs out locally first and then tells the server, best effort.
func (m *Manager) Logout(ctx context.Context) State {
	log := config.WithContext(ctx)

	m.writes.Lock()
	m.mu.RLock()
	var token string
	if m.cred != nil {
		token = m.cred.Token
	}
	m.mu.RUnlock()

	if err := m.store.Clear(); err != nil {
		log.WithError(err).Error("Failed to clear stored credential")
	}
	state := m.transition(Unauthenticated, nil)
	m.writes.Unlock()

	if token != "" && m.gateway != nil {
		if err := m.gateway.Logout(ctx, token); err != nil {
			log.WithError(err).Warn("Server logout failed")
		}
	}
	return state
}

// HandleUnauthorized is the fail-closed path for a 401 on any authenticated
// call. A rejection of a token that is no longer current is ignored.
func (m *Manager) HandleUnauthorized(token string) {
	m.mu.RLock()
	current := m.cred != nil && m.cred.Token == token
	gen := m.generation
	m.mu.RUnlock()
	if !current {
		return
	}
	config.WithContext(context.Background()).Info("Credential rejected by server; signing out")
	m.failClosed(gen)
}

// Token implements oauth2.TokenSource.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != Authenticated || m.cred == nil {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: m.cred.Token, TokenType: "Bearer"}, nil
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Generation identifies the current session instance. It changes on every
// transition, so work started under one generation can detect that the
// session it belonged to is gone.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Subscribe registers fn to run after every transition. fn runs on the
// goroutine that caused the transition and must not call back into the
// manager's write methods. The returned func removes it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
	idx := len(m.subscribers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.subscribers) {
			m.subscribers[idx] = nil
		}
	}
}

// failClosed signs out only if the session is still generation gen.
func (m *Manager) failClosed(gen uint64) State {
	m.writes.Lock()
	defer m.writes.Unlock()
	if m.Generation() != gen {
		return m.Snapshot()
	}
	if err := m.store.Clear(); err != nil {
		config.WithContext(context.Background()).WithError(err).Error("Failed to clear stored credential")
	}
	return m.transition(Unauthenticated, nil)
}

func (m *Manager) transition(status Status, cred *credential.Credential) State {
	m.mu.Lock()
	s := m.applyLocked(status, cred)
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, s)
	return s
}

func (m *Manager) applyLocked(status Status, cred *credential.Credential) State {
	m.status = status
	m.cred = cred
	m.generation++
	m.id = uuid.New()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	s := State{Status: m.status, Generation: m.generation, ID: m.id}
	if m.cred != nil {
		c := *m.cred
		s.Credential = &c
	}
	return s
}

func (m *Manager) subscribersLocked() []func(State) {
	out := make([]func(State), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}

// expired reports whether token is a JWT whose exp claim has passed. Tokens
// that are not JWTs are left for the server to judge.
func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(m.now())
}

func notify(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}
