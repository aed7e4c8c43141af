package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"github.com/saulo-duarte/goal-tracker/internal/session"
)

type fakeGateway struct {
	mu         sync.Mutex
	whoAmIErr  error
	logoutErr  error
	loggedOut  []string
	whoAmICall int
}

func (g *fakeGateway) WhoAmI(ctx context.Context) (*apiclient.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.whoAmICall++
	if g.whoAmIErr != nil {
		return nil, g.whoAmIErr
	}
	return &apiclient.User{ID: 42, Username: "alice"}, nil
}

func (g *fakeGateway) Logout(ctx context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loggedOut = append(g.loggedOut, token)
	return g.logoutErr
}

// orderedStore records whether the session was already authenticated when
// Save ran.
type orderedStore struct {
	credential.Store
	mgr          *session.Manager
	authedOnSave bool
}

func (s *orderedStore) Save(c credential.Credential) error {
	if s.mgr != nil {
		s.authedOnSave = s.mgr.Snapshot().Authenticated()
	}
	return s.Store.Save(c)
}

type brokenStore struct{ credential.Store }

func (brokenStore) Load() (*credential.Credential, error) { return nil, errors.New("disk on fire") }

var alice = credential.Credential{Token: "abc", UserID: "42", Username: "alice"}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestBoot(t *testing.T) {
	t.Run("EmptyStore", func(t *testing.T) {
		m := session.NewManager(credential.NewMemoryStore(), &fakeGateway{})
		if got := m.Snapshot().Status; got != session.Booting {
			t.Fatalf("expected Booting before Boot, got %v", got)
		}
		if s := m.Boot(context.Background()); s.Status != session.Unauthenticated || s.Credential != nil {
			t.Fatalf("unexpected state %+v", s)
		}
	})

	t.Run("StoredCredential", func(t *testing.T) {
		store := credential.NewMemoryStore()
		store.Save(alice)
		m := session.NewManager(store, &fakeGateway{})
		s := m.Boot(context.Background())
		if !s.Authenticated() || *s.Credential != alice {
			t.Fatalf("unexpected state %+v", s)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		store := credential.NewMemoryStore()
		expired := alice
		expired.Token = signed(t, time.Now().Add(-time.Hour))
		store.Save(expired)

		m := session.NewManager(store, &fakeGateway{})
		if s := m.Boot(context.Background()); s.Status != session.Unauthenticated {
			t.Fatalf("expired credential must not authenticate, got %v", s.Status)
		}
		if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
			t.Fatalf("expired credential should be cleared, got %v", err)
		}
	})

	t.Run("LiveToken", func(t *testing.T) {
		store := credential.NewMemoryStore()
		live := alice
		live.Token = signed(t, time.Now().Add(time.Hour))
		store.Save(live)

		m := session.NewManager(store, &fakeGateway{})
		if s := m.Boot(context.Background()); !s.Authenticated() {
			t.Fatalf("live credential should authenticate, got %v", s.Status)
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		m := session.NewManager(brokenStore{credential.NewMemoryStore()}, &fakeGateway{})
		if s := m.Boot(context.Background()); s.Status != session.Unauthenticated {
			t.Fatalf("store failure must resolve to Unauthenticated, got %v", s.Status)
		}
	})
}

func TestVerify(t *testing.T) {
	boot := func(gw *fakeGateway) (*session.Manager, credential.Store) {
		store := credential.NewMemoryStore()
		store.Save(alice)
		m := session.NewManager(store, gw)
		m.Boot(context.Background())
		return m, store
	}

	t.Run("NetworkErrorFailsOpen", func(t *testing.T) {
		m, store := boot(&fakeGateway{whoAmIErr: &apiclient.Error{Op: "who am i", Kind: apiclient.KindNetwork}})
		s, err := m.Verify(context.Background())
		if !errors.Is(err, apiclient.ErrNetwork) {
			t.Fatalf("expected network error, got %v", err)
		}
		if !s.Authenticated() {
			t.Fatalf("network failure must keep the session, got %v", s.Status)
		}
		if _, err := store.Load(); err != nil {
			t.Fatalf("credential should survive, got %v", err)
		}
	})

	t.Run("ServerErrorFailsOpen", func(t *testing.T) {
		m, _ := boot(&fakeGateway{whoAmIErr: &apiclient.Error{Kind: apiclient.KindServer, Status: 503}})
		if s, _ := m.Verify(context.Background()); !s.Authenticated() {
			t.Fatalf("server failure must keep the session, got %v", s.Status)
		}
	})

	t.Run("AuthErrorFailsClosed", func(t *testing.T) {
		m, store := boot(&fakeGateway{whoAmIErr: &apiclient.Error{Kind: apiclient.KindAuth, Status: 401}})
		s, _ := m.Verify(context.Background())
		if s.Status != session.Unauthenticated {
			t.Fatalf("auth failure must sign out, got %v", s.Status)
		}
		if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
			t.Fatalf("credential should be cleared, got %v", err)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		gw := &fakeGateway{}
		m := session.NewManager(credential.NewMemoryStore(), gw)
		m.Boot(context.Background())
		if _, err := m.Verify(context.Background()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if gw.whoAmICall != 0 {
			t.Fatalf("nothing to verify without a credential")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("SavesBeforeFlip", func(t *testing.T) {
		store := &orderedStore{Store: credential.NewMemoryStore()}
		m := session.NewManager(store, &fakeGateway{})
		store.mgr = m
		m.Boot(context.Background())

		var seen []session.State
		m.Subscribe(func(s session.State) { seen = append(seen, s) })

		s, err := m.Login(alice)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if store.authedOnSave {
			t.Fatalf("state flipped before the credential was saved")
		}
		if !s.Authenticated() || *s.Credential != alice {
			t.Fatalf("unexpected state %+v", s)
		}
		if got, _ := store.Load(); got == nil || *got != alice {
			t.Fatalf("credential not persisted: %+v", got)
		}
		if len(seen) != 1 || !seen[0].Authenticated() {
			t.Fatalf("subscriber should observe the flip once, got %+v", seen)
		}
	})

	t.Run("Incomplete", func(t *testing.T) {
		m := session.NewManager(credential.NewMemoryStore(), &fakeGateway{})
		m.Boot(context.Background())
		_, err := m.Login(credential.Credential{Token: "abc"})
		if !errors.Is(err, credential.ErrIncompleteCredential) {
			t.Fatalf("expected ErrIncompleteCredential, got %v", err)
		}
		if m.Snapshot().Authenticated() {
			t.Fatalf("incomplete credential must not authenticate")
		}
	})

	t.Run("GenerationAdvances", func(t *testing.T) {
		m := session.NewManager(credential.NewMemoryStore(), &fakeGateway{})
		m.Boot(context.Background())
		before := m.Snapshot()
		after, _ := m.Login(alice)
		if after.Generation <= before.Generation || after.ID == before.ID {
			t.Fatalf("login should start a new session instance")
		}
	})
}

func TestLogout(t *testing.T) {
	gw := &fakeGateway{logoutErr: &apiclient.Error{Kind: apiclient.KindNetwork}}
	store := credential.NewMemoryStore()
	m := session.NewManager(store, gw)
	m.Boot(context.Background())
	m.Login(alice)

	s := m.Logout(context.Background())
	if s.Status != session.Unauthenticated {
		t.Fatalf("logout must sign out even when the server is unreachable, got %v", s.Status)
	}
	if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("credential should be cleared, got %v", err)
	}
	if len(gw.loggedOut) != 1 || gw.loggedOut[0] != "abc" {
		t.Fatalf("server should be told about the old token, got %v", gw.loggedOut)
	}
	if _, err := m.Token(); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("no token after logout, got %v", err)
	}
}

func TestHandleUnauthorized(t *testing.T) {
	t.Run("CurrentToken", func(t *testing.T) {
		store := credential.NewMemoryStore()
		m := session.NewManager(store, &fakeGateway{})
		m.Boot(context.Background())
		m.Login(alice)

		m.HandleUnauthorized("abc")
		if m.Snapshot().Status != session.Unauthenticated {
			t.Fatalf("expected Unauthenticated")
		}
		if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
			t.Fatalf("credential should be cleared, got %v", err)
		}
	})

	t.Run("StaleToken", func(t *testing.T) {
		store := credential.NewMemoryStore()
		m := session.NewManager(store, &fakeGateway{})
		m.Boot(context.Background())
		m.Login(alice)
		bob := credential.Credential{Token: "def", UserID: "43", Username: "bob"}
		m.Login(bob)

		m.HandleUnauthorized("abc")
		s := m.Snapshot()
		if !s.Authenticated() || s.Credential.Token != "def" {
			t.Fatalf("a rejection of an old token must not end the new session: %+v", s)
		}
		if got, _ := store.Load(); got == nil || *got != bob {
			t.Fatalf("new credential should be kept, got %+v", got)
		}
	})
}

func TestToken(t *testing.T) {
	m := session.NewManager(credential.NewMemoryStore(), &fakeGateway{})
	m.Boot(context.Background())
	m.Login(alice)

	tok, err := m.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "abc" || tok.Type() != "Bearer" {
		t.Fatalf("unexpected token %+v", tok)
	}
}

// A 401 on any authenticated call clears the store and signs out.
func TestUnauthorizedListSignsOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"success":false,"detail":"Not authenticated"}`)
	}))
	defer srv.Close()

	client := apiclient.New(srv.URL)
	store := credential.NewMemoryStore()
	m := session.NewManager(store, client)
	client.SetTokenSource(m)
	client.OnUnauthorized(m.HandleUnauthorized)
	m.Boot(context.Background())
	m.Login(alice)

	if _, err := client.ListGoals(context.Background(), "42"); !errors.Is(err, apiclient.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if m.Snapshot().Status != session.Unauthenticated {
		t.Fatalf("expected Unauthenticated after 401")
	}
	if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("credential should be cleared, got %v", err)
	}
}
