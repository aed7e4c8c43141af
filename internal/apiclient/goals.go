package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type goalsResponse struct {
	Goals []Goal `json:"goals"`
}

type goalResponse struct {
	Goal *Goal `json:"goal"`
}

type suggestionsResponse struct {
	Suggestions *[]string `json:"suggestions"`
}

type goalUpdateRequest struct {
	ID int64 `json:"id"`
	GoalInput
}

func (c *Client) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	var resp goalsResponse
	path := "/goals/user/" + url.PathEscape(userID)
	if err := c.do(ctx, c.authenticated("list goals", http.MethodGet, path, nil), &resp); err != nil {
		return nil, err
	}
	if resp.Goals == nil {
		return []Goal{}, nil
	}
	return resp.Goals, nil
}

func (c *Client) GetGoal(ctx context.Context, id int64) (*Goal, error) {
	const op = "get goal"
	var resp goalResponse
	if err := c.do(ctx, c.authenticated(op, http.MethodGet, goalPath(id), nil), &resp); err != nil {
		return nil, err
	}
	if resp.Goal == nil || resp.Goal.ID == 0 {
		return nil, malformed(op, "response has no goal")
	}
	return resp.Goal, nil
}

// CreateGoal returns the goal with its server-assigned id.
func (c *Client) CreateGoal(ctx context.Context, in GoalInput) (*Goal, error) {
	const op = "create goal"
	if err := in.validate(op); err != nil {
		return nil, err
	}
	var resp goalResponse
	if err := c.do(ctx, c.authenticated(op, http.MethodPost, "/goals/create", in), &resp); err != nil {
		return nil, err
	}
	if resp.Goal == nil || resp.Goal.ID == 0 {
		return nil, malformed(op, "response has no goal id")
	}
	return resp.Goal, nil
}

func (c *Client) UpdateGoal(ctx context.Context, id int64, in GoalInput) (*Goal, error) {
	const op = "update goal"
	if err := in.validate(op); err != nil {
		return nil, err
	}
	var resp goalResponse
	body := goalUpdateRequest{ID: id, GoalInput: in}
	if err := c.do(ctx, c.authenticated(op, http.MethodPut, "/goals/update", body), &resp); err != nil {
		return nil, err
	}
	if resp.Goal == nil || resp.Goal.ID != id {
		return nil, malformed(op, "response does not describe goal %d", id)
	}
	return resp.Goal, nil
}

func (c *Client) DeleteGoal(ctx context.Context, id int64) error {
	return c.do(ctx, c.authenticated("delete goal", http.MethodDelete, goalPath(id), nil), nil)
}

func (c *Client) Suggestions(ctx context.Context, userID string) ([]string, error) {
	const op = "suggestions"
	var resp suggestionsResponse
	path := "/goals/suggestions/" + url.PathEscape(userID)
	if err := c.do(ctx, c.authenticated(op, http.MethodGet, path, nil), &resp); err != nil {
		return nil, err
	}
	if resp.Suggestions == nil {
		return nil, malformed(op, "response has no suggestions")
	}
	return *resp.Suggestions, nil
}

func goalPath(id int64) string {
	return "/goals/" + strconv.FormatInt(id, 10)
}
