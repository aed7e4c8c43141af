package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type progressRequest struct {
	UpdateText string `json:"update_text"`
}

type addProgressResponse struct {
	Update *ProgressUpdate `json:"update"`
}

type progressListResponse struct {
	Updates []ProgressUpdate `json:"updates"`
}

// AddProgress appends a free-text update to a goal. The server turns the text
// into a new progress percentage; the returned update carries it when the
// server includes one, otherwise the result is nil.
func (c *Client) AddProgress(ctx context.Context, goalID int64, text string) (*ProgressUpdate, error) {
	const op = "add progress"
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Op: op, Kind: KindValidation, Detail: "Update text required"}
	}
	var resp addProgressResponse
	if err := c.do(ctx, c.authenticated(op, http.MethodPost, progressPath(goalID), progressRequest{UpdateText: text}), &resp); err != nil {
		return nil, err
	}
	if resp.Update != nil {
		resp.Update.GoalID = goalID
	}
	return resp.Update, nil
}

// ListProgress returns the updates of a goal in server order (newest first).
func (c *Client) ListProgress(ctx context.Context, goalID int64) ([]ProgressUpdate, error) {
	var resp progressListResponse
	if err := c.do(ctx, c.authenticated("list progress", http.MethodGet, progressPath(goalID), nil), &resp); err != nil {
		return nil, err
	}
	for i := range resp.Updates {
		resp.Updates[i].GoalID = goalID
	}
	if resp.Updates == nil {
		return []ProgressUpdate{}, nil
	}
	return resp.Updates, nil
}

func progressPath(goalID int64) string {
	return "/progress/" + strconv.FormatInt(goalID, 10)
}
