package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	util "github.com/saulo-duarte/goal-tracker/internal/utils"
	"golang.org/x/oauth2"
)

func stub(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func authedClient(url, token string) *apiclient.Client {
	c := apiclient.New(url)
	c.SetTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	return c
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := stub(t, http.StatusOK, `{"success":true,"token":"abc","user_id":42,"username":"alice"}`, func(r *http.Request) {
			if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "" {
				t.Errorf("login must not send a bearer token")
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "alice" || body["password"] != "secret" {
				t.Errorf("unexpected body %v", body)
			}
		})

		cred, err := apiclient.New(srv.URL).Login(context.Background(), "alice", "secret")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		want := credential.Credential{Token: "abc", UserID: "42", Username: "alice"}
		if *cred != want {
			t.Fatalf("got %+v, want %+v", *cred, want)
		}
	})

	t.Run("CamelCaseUserID", func(t *testing.T) {
		srv := stub(t, http.StatusOK, `{"success":true,"token":"abc","userId":7,"username":"bob"}`, nil)
		cred, err := apiclient.New(srv.URL).Login(context.Background(), "bob", "pw")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if cred.UserID != "7" {
			t.Fatalf("unexpected user id %q", cred.UserID)
		}
	})

	malformedBodies := map[string]string{
		"MissingToken":  `{"success":true,"user_id":42,"username":"alice"}`,
		"MissingUserID": `{"success":true,"token":"abc","username":"alice"}`,
		"StringUserID":  `{"success":true,"token":"abc","user_id":"42","username":"alice"}`,
		"NotJSON":       `<html>ok</html>`,
		"NoSuccessFlag": `{"token":"abc","user_id":42}`,
	}
	for name, body := range malformedBodies {
		t.Run(name, func(t *testing.T) {
			srv := stub(t, http.StatusOK, body, nil)
			_, err := apiclient.New(srv.URL).Login(context.Background(), "alice", "secret")
			if !errors.Is(err, apiclient.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if !errors.Is(err, apiclient.ErrServer) {
				t.Fatalf("malformed bodies are server errors too, got %v", err)
			}
		})
	}

	t.Run("WrongPassword", func(t *testing.T) {
		hookCalled := false
		srv := stub(t, http.StatusUnauthorized, `{"success":false,"detail":"Incorrect username or password"}`, nil)
		c := apiclient.New(srv.URL)
		c.OnUnauthorized(func(string) { hookCalled = true })

		_, err := c.Login(context.Background(), "alice", "nope")
		if !errors.Is(err, apiclient.ErrAuth) || !errors.Is(err, apiclient.ErrRejected) {
			t.Fatalf("expected auth rejection, got %v", err)
		}
		if apiclient.Message(err) != "Incorrect username or password" {
			t.Fatalf("unexpected message %q", apiclient.Message(err))
		}
		if hookCalled {
			t.Fatalf("anonymous calls must not trigger the unauthorized hook")
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("Conflict", func(t *testing.T) {
		srv := stub(t, http.StatusBadRequest, `{"success":false,"detail":"Username already exists"}`, nil)
		err := apiclient.New(srv.URL).Register(context.Background(), "alice", "a@example.com", "pw")
		if !errors.Is(err, apiclient.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if apiclient.Message(err) != "Username already exists" {
			t.Fatalf("unexpected message %q", apiclient.Message(err))
		}
	})

	t.Run("SuccessFalseOn200", func(t *testing.T) {
		srv := stub(t, http.StatusOK, `{"success":false,"detail":"Email already exists"}`, nil)
		err := apiclient.New(srv.URL).Register(context.Background(), "alice", "a@example.com", "pw")
		if !errors.Is(err, apiclient.ErrValidation) {
			t.Fatalf("success:false must be a failure, got %v", err)
		}
	})

	t.Run("Created", func(t *testing.T) {
		srv := stub(t, http.StatusCreated, `{"success":true,"message":"Registration successful"}`, nil)
		if err := apiclient.New(srv.URL).Register(context.Background(), "alice", "a@example.com", "pw"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		err := apiclient.New("http://127.0.0.1:0").Register(context.Background(), "alice", "", "pw")
		if !errors.Is(err, apiclient.ErrValidation) {
			t.Fatalf("expected local validation error, got %v", err)
		}
	})
}

func TestAuthenticatedCalls(t *testing.T) {
	t.Run("BearerHeader", func(t *testing.T) {
		srv := stub(t, http.StatusOK, `{"success":true,"goals":[{"id":1,"category":"Health","description":"Run","target_date":"2025-01-01","progress":40,"created_at":"2024-05-01T12:00:00.123456"}]}`, func(r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("unexpected Authorization %q", got)
			}
			if r.URL.Path != "/goals/user/42" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})
		goals, err := authedClient(srv.URL, "abc").ListGoals(context.Background(), "42")
		if err != nil {
			t.Fatalf("ListGoals failed: %v", err)
		}
		if len(goals) != 1 || goals[0].ID != 1 || goals[0].Progress != 40 {
			t.Fatalf("unexpected goals %+v", goals)
		}
		if goals[0].TargetDate.String() != "2025-01-01" || goals[0].CreatedAt == nil {
			t.Fatalf("dates not decoded: %+v", goals[0])
		}
	})

	t.Run("UnauthorizedHook", func(t *testing.T) {
		srv := stub(t, http.StatusUnauthorized, `{"success":false,"detail":"Not authenticated"}`, nil)
		c := authedClient(srv.URL, "abc")
		var rejected string
		c.OnUnauthorized(func(token string) { rejected = token })

		_, err := c.ListGoals(context.Background(), "42")
		if !errors.Is(err, apiclient.ErrAuth) {
			t.Fatalf("expected ErrAuth, got %v", err)
		}
		if rejected != "abc" {
			t.Fatalf("hook should receive the rejected token, got %q", rejected)
		}
	})

	t.Run("NoTokenSource", func(t *testing.T) {
		_, err := apiclient.New("http://127.0.0.1:0").ListGoals(context.Background(), "42")
		if !errors.Is(err, apiclient.ErrAuth) {
			t.Fatalf("expected ErrAuth without token, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := stub(t, http.StatusNotFound, `{"success":false,"detail":"Goal not found"}`, nil)
		err := authedClient(srv.URL, "abc").DeleteGoal(context.Background(), 9)
		if !errors.Is(err, apiclient.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := stub(t, http.StatusInternalServerError, `oops`, nil)
		_, err := authedClient(srv.URL, "abc").GetGoal(context.Background(), 9)
		if !errors.Is(err, apiclient.ErrServer) || errors.Is(err, apiclient.ErrMalformedResponse) {
			t.Fatalf("expected plain server error, got %v", err)
		}
	})
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := authedClient(url, "abc").ListGoals(context.Background(), "42")
	if !errors.Is(err, apiclient.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if errors.Is(err, apiclient.ErrRejected) || errors.Is(err, apiclient.ErrAuth) {
		t.Fatalf("network errors are not rejections: %v", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, apiclient.WithTimeout(20*time.Millisecond))
	c.SetTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"}))
	if _, err := c.WhoAmI(context.Background()); !errors.Is(err, apiclient.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
}

func TestCreateGoal(t *testing.T) {
	srv := stub(t, http.StatusCreated, `{"success":true,"goal":{"id":7,"category":"Health","description":"Run 5k","target_date":"2025-01-01","progress":0}}`, func(r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["target_date"] != "2025-01-01" || body["category"] != "Health" {
			t.Errorf("unexpected body %v", body)
		}
	})

	goal, err := authedClient(srv.URL, "abc").CreateGoal(context.Background(), apiclient.GoalInput{
		Category:    "Health",
		Description: "Run 5k",
		TargetDate:  util.NewDate(2025, time.January, 1),
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if goal.ID != 7 {
		t.Fatalf("unexpected goal %+v", goal)
	}

	_, err = authedClient(srv.URL, "abc").CreateGoal(context.Background(), apiclient.GoalInput{Category: "Health"})
	if !errors.Is(err, apiclient.ErrValidation) {
		t.Fatalf("incomplete input should fail validation, got %v", err)
	}
}

func TestCreateGoalWithoutID(t *testing.T) {
	srv := stub(t, http.StatusCreated, `{"success":true,"goal":{"category":"Health"}}`, nil)
	_, err := authedClient(srv.URL, "abc").CreateGoal(context.Background(), apiclient.GoalInput{
		Category:    "Health",
		Description: "Run 5k",
		TargetDate:  util.NewDate(2025, time.January, 1),
	})
	if !errors.Is(err, apiclient.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["update_text"] != "ran 3k" {
				t.Errorf("unexpected body %v", body)
			}
			io.WriteString(w, `{"success":true,"update":{"id":1,"text":"ran 3k","progress":60,"analysis":"Good pace","created_at":"2024-05-02T08:00:00"}}`)
		case http.MethodGet:
			io.WriteString(w, `{"success":true,"updates":[{"id":1,"text":"ran 3k","progress":60,"created_at":"2024-05-02T08:00:00"}]}`)
		}
	}))
	defer srv.Close()
	c := authedClient(srv.URL, "abc")

	update, err := c.AddProgress(context.Background(), 7, "ran 3k")
	if err != nil {
		t.Fatalf("AddProgress failed: %v", err)
	}
	if update.GoalID != 7 || update.Progress != 60 || update.Analysis != "Good pace" {
		t.Fatalf("unexpected update %+v", update)
	}

	updates, err := c.ListProgress(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListProgress failed: %v", err)
	}
	if len(updates) != 1 || updates[0].GoalID != 7 {
		t.Fatalf("unexpected updates %+v", updates)
	}

	if _, err := c.AddProgress(context.Background(), 7, "  "); !errors.Is(err, apiclient.ErrValidation) {
		t.Fatalf("blank update should fail validation, got %v", err)
	}
}

func TestSuggestionsMissingField(t *testing.T) {
	srv := stub(t, http.StatusOK, `{"success":true}`, nil)
	if _, err := authedClient(srv.URL, "abc").Suggestions(context.Background(), "42"); !errors.Is(err, apiclient.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestLogoutUsesGivenToken(t *testing.T) {
	srv := stub(t, http.StatusOK, `{"success":true}`, func(r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer old" {
			t.Errorf("unexpected Authorization %q", got)
		}
	})
	c := apiclient.New(srv.URL)
	if err := c.Logout(context.Background(), "old"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
}
