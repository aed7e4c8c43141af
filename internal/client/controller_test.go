package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/client"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"github.com/saulo-duarte/goal-tracker/internal/guard"
	"github.com/saulo-duarte/goal-tracker/internal/session"
	"github.com/saulo-duarte/goal-tracker/internal/suggestion"
	util "github.com/saulo-duarte/goal-tracker/internal/utils"
)

// stubAPI answers the handful of endpoints the controller uses.
type stubAPI struct {
	mu              sync.Mutex
	goals           []map[string]interface{}
	rejectGoals     bool
	failSuggestions bool
	failDelete      bool
	deletedAccount  bool
	loggedOut       bool
}

func (s *stubAPI) handler(t *testing.T) http.Handler {
	write := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authed := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer abc" {
			write(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "detail": "Not authenticated"})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			write(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "detail": "Incorrect username or password"})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"success": true, "token": "abc", "user_id": 42, "username": "alice"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.loggedOut = true
		s.mu.Unlock()
		write(w, http.StatusOK, map[string]interface{}{"success": true})
	})
	mux.HandleFunc("PUT /auth/update", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] == "bob" {
			write(w, http.StatusBadRequest, map[string]interface{}{"success": false, "detail": "Username already taken"})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"success": true, "user": map[string]interface{}{"id": 42, "username": body["username"]}})
	})
	mux.HandleFunc("DELETE /auth/delete", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		if s.failDelete {
			write(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "detail": "Error deleting user"})
			return
		}
		s.mu.Lock()
		s.deletedAccount = true
		s.mu.Unlock()
		write(w, http.StatusOK, map[string]interface{}{"success": true, "message": "User deleted successfully"})
	})
	mux.HandleFunc("GET /goals/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rejectGoals {
			write(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "detail": "Token expired"})
			return
		}
		if !authed(w, r) {
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"success": true, "goals": s.goals})
	})
	mux.HandleFunc("POST /goals/create", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 7
		body["progress"] = 0
		s.mu.Lock()
		s.goals = append(s.goals, body)
		s.mu.Unlock()
		write(w, http.StatusCreated, map[string]interface{}{"success": true, "goal": body})
	})
	mux.HandleFunc("GET /goals/suggestions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if s.failSuggestions {
			write(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "detail": "boom"})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"success": true, "suggestions": []string{"Keep going"}})
	})
	mux.HandleFunc("GET /progress/{id}", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]interface{}{"success": true, "updates": []interface{}{}})
	})
	return mux
}

func setup(t *testing.T, api *stubAPI) (*client.Container, credential.Store) {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	c := client.NewContainerWithStore(&config.Settings{BaseURL: srv.URL, RequestTimeout: 5 * time.Second}, store)
	c.Controller.Boot(context.Background())
	return c, store
}

func TestLoginFlow(t *testing.T) {
	c, store := setup(t, &stubAPI{})
	ctl := c.Controller

	if v, _ := ctl.Navigate(guard.ViewDashboard); v != guard.ViewLogin {
		t.Fatalf("dashboard should redirect to login before sign in, got %v", v)
	}

	state, err := ctl.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !state.Authenticated() {
		t.Fatalf("expected Authenticated, got %v", state.Status)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("credential not stored: %v", err)
	}
	if *got != (credential.Credential{Token: "abc", UserID: "42", Username: "alice"}) {
		t.Fatalf("unexpected credential %+v", *got)
	}
	if v, _ := ctl.Navigate(guard.ViewDashboard); v != guard.ViewDashboard {
		t.Fatalf("dashboard should be allowed after sign in, got %v", v)
	}
}

func TestLoginRejected(t *testing.T) {
	c, store := setup(t, &stubAPI{})
	state, err := c.Controller.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, apiclient.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if state.Authenticated() {
		t.Fatalf("rejected login must not authenticate")
	}
	if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("nothing should be stored, got %v", err)
	}
}

func TestCreateGoalShowsInDashboard(t *testing.T) {
	c, _ := setup(t, &stubAPI{})
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")

	d, err := ctl.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("LoadDashboard failed: %v", err)
	}
	before := len(d.Goals)

	date, _ := util.ParseDate("2025-01-01")
	goal, err := ctl.CreateGoal(context.Background(), apiclient.GoalInput{Category: "Health", Description: "Run 5k", TargetDate: date})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if goal.ID != 7 {
		t.Fatalf("unexpected goal %+v", goal)
	}
	goals := ctl.Goals()
	if len(goals) != before+1 || goals[len(goals)-1].ID != 7 {
		t.Fatalf("goal 7 missing from cache: %+v", goals)
	}
}

func TestDashboardUnauthorizedSignsOut(t *testing.T) {
	api := &stubAPI{}
	c, store := setup(t, api)
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")

	var seen []session.State
	ctl.Subscribe(func(s session.State) { seen = append(seen, s) })

	api.mu.Lock()
	api.rejectGoals = true
	api.mu.Unlock()
	_, err := ctl.LoadDashboard(context.Background())
	if err == nil {
		t.Fatalf("expected an error")
	}
	if ctl.Session().Status != session.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", ctl.Session().Status)
	}
	if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("credential should be cleared, got %v", err)
	}
	if len(ctl.Goals()) != 0 {
		t.Fatalf("cache should be empty")
	}
	if len(seen) == 0 || seen[len(seen)-1].Status != session.Unauthenticated {
		t.Fatalf("subscribers should learn about the sign out: %+v", seen)
	}
}

func TestDashboardSuggestionFallback(t *testing.T) {
	api := &stubAPI{failSuggestions: true, goals: []map[string]interface{}{
		{"id": 1, "category": "Career", "description": "Ship it", "target_date": "2025-06-01", "progress": 80},
	}}
	c, _ := setup(t, api)
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")

	d, err := ctl.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("a suggestion failure must not fail the dashboard: %v", err)
	}
	if len(d.Goals) != 1 || d.Username != "alice" {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if strings.Join(d.Suggestions, "|") != strings.Join(suggestion.Fallback, "|") {
		t.Fatalf("expected fallback suggestions, got %q", d.Suggestions)
	}
}

func TestLogoutIgnoresStaleDashboard(t *testing.T) {
	c, _ := setup(t, &stubAPI{})
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")
	gen := ctl.Session().Generation

	ctl.Logout(context.Background())
	if ctl.Current(gen) {
		t.Fatalf("generation should change on logout")
	}
	if _, err := ctl.LoadDashboard(context.Background()); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := ctl.GoalDetail(context.Background(), 7); err == nil {
		t.Fatalf("goal detail needs a session")
	}
}

func TestDeleteAccountSignsOut(t *testing.T) {
	api := &stubAPI{}
	c, store := setup(t, api)
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")
	gen := ctl.Session().Generation

	state, err := ctl.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if state.Authenticated() || ctl.Current(gen) {
		t.Fatalf("account deletion should end the session, got %v", state.Status)
	}
	if !api.deletedAccount || !api.loggedOut {
		t.Fatalf("expected delete then logout on the server, got %+v", api)
	}
	if _, err := store.Load(); !errors.Is(err, credential.ErrNoCredential) {
		t.Fatalf("credential should be cleared, got %v", err)
	}
}

func TestDeleteAccountFailureKeepsSession(t *testing.T) {
	c, store := setup(t, &stubAPI{failDelete: true})
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")

	state, err := ctl.DeleteAccount(context.Background())
	if !errors.Is(err, apiclient.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if !state.Authenticated() {
		t.Fatalf("a failed delete must keep the session")
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("credential should survive, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	c, store := setup(t, &stubAPI{})
	ctl := c.Controller
	ctl.Login(context.Background(), "alice", "secret")

	if _, err := ctl.UpdateAccount(context.Background(), apiclient.AccountUpdate{Username: "bob"}); !errors.Is(err, apiclient.ErrValidation) {
		t.Fatalf("expected ErrValidation for a taken username, got %v", err)
	}

	u, err := ctl.UpdateAccount(context.Background(), apiclient.AccountUpdate{Username: "alicia"})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	if u.Username != "alicia" || ctl.Session().Credential.Username != "alicia" {
		t.Fatalf("username not carried into the session: %+v", ctl.Session().Credential)
	}
	if got, _ := store.Load(); got == nil || got.Username != "alicia" || got.Token != "abc" {
		t.Fatalf("stored credential not updated: %+v", got)
	}
}

func TestNewContainerFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	settings := &config.Settings{
		BaseURL:         "http://127.0.0.1:0",
		CredentialsPath: path,
		CryptoKey:       "0123456789abcdef0123456789abcdef",
		RequestTimeout:  time.Second,
	}
	c, err := client.NewContainer(settings)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	fs, ok := c.Store.(*credential.FileStore)
	if !ok || fs.Path() != path {
		t.Fatalf("expected a file store at %s, got %T", path, c.Store)
	}

	settings.CryptoKey = "short"
	if _, err := client.NewContainer(settings); !errors.Is(err, config.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}

	settings.CredentialsPath = ""
	settings.CryptoKey = ""
	c, err = client.NewContainer(settings)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	if _, ok := c.Store.(*credential.MemoryStore); !ok {
		t.Fatalf("expected a memory store, got %T", c.Store)
	}
}
