package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"golang.org/x/oauth2"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	UserID   json.RawMessage `json:"user_id"`
	UserIDJS json.RawMessage `json:"userId"`
	Username string          `json:"username"`
}

// AccountUpdate changes the fields that are non-empty.
type AccountUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

type meResponse struct {
	User *User `json:"user"`
}

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	const op = "register"
	if username == "" || email == "" || password == "" {
		return &Error{Op: op, Kind: KindValidation, Detail: "username, email and password are required"}
	}
	return c.do(ctx, c.anonymous(op, http.MethodPost, "/auth/register", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}), nil)
}

// Login exchanges username and password for a credential. A success envelope
// without a token or a numeric user id is reported as ErrMalformedResponse.
func (c *Client) Login(ctx context.Context, username, password string) (*credential.Credential, error) {
	const op = "login"
	if username == "" || password == "" {
		return nil, &Error{Op: op, Kind: KindValidation, Detail: "username and password are required"}
	}

	var resp loginResponse
	if err := c.do(ctx, c.anonymous(op, http.MethodPost, "/auth/login", loginRequest{
		Username: username,
		Password: password,
	}), &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, malformed(op, "login response has no token")
	}
	rawID := resp.UserID
	if len(rawID) == 0 || bytes.Equal(rawID, []byte("null")) {
		rawID = resp.UserIDJS
	}
	userID, ok := numericID(rawID)
	if !ok {
		return nil, malformed(op, "login response has no numeric user id")
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	return &credential.Credential{
		Token:    resp.Token,
		UserID:   strconv.FormatInt(userID, 10),
		Username: name,
	}, nil
}

// Logout revokes token on the server. The caller decides what to do with the
// local session; this call only reports whether the server acknowledged.
func (c *Client) Logout(ctx context.Context, token string) error {
	req := c.anonymous("logout", http.MethodPost, "/auth/logout", nil)
	req.authed = true
	req.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return c.do(ctx, req, nil)
}

// WhoAmI returns the identity behind the current token.
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	const op = "who am i"
	var resp meResponse
	if err := c.do(ctx, c.authenticated(op, http.MethodGet, "/auth/me", nil), &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == 0 {
		return nil, malformed(op, "response has no user")
	}
	return resp.User, nil
}

// UpdateAccount changes the signed-in user's username, email or password. A
// username or email held by another account fails with ErrValidation.
func (c *Client) UpdateAccount(ctx context.Context, in AccountUpdate) (*User, error) {
	const op = "update account"
	if in == (AccountUpdate{}) {
		return nil, &Error{Op: op, Kind: KindValidation, Detail: "nothing to update"}
	}
	var resp meResponse
	if err := c.do(ctx, c.authenticated(op, http.MethodPut, "/auth/update", in), &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == 0 {
		return nil, malformed(op, "response has no user")
	}
	return resp.User, nil
}

// DeleteAccount removes the signed-in user with all goals and progress. The
// server revokes the token; clearing the local session is up to the caller.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, c.authenticated("delete account", http.MethodDelete, "/auth/delete", nil), nil)
}

func numericID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
