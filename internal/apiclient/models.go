package apiclient

import (
	"strings"

	util "github.com/saulo-duarte/goal-tracker/internal/utils"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Goal mirrors the server record. Progress is computed by the server from
// progress updates and is never set by the client.
type Goal struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id,omitempty"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	TargetDate  util.Date       `json:"target_date"`
	Progress    float64         `json:"progress"`
	CreatedAt   *util.Timestamp `json:"created_at,omitempty"`
}

// Categories the server accepts for a goal.
var Categories = []string{"Health", "Career", "Education", "Finance", "Personal", "Other"}

type GoalInput struct {
	Category    string    `json:"category"`
	Description string    `json:"description"`
	TargetDate  util.Date `json:"target_date"`
}

func (in GoalInput) validate(op string) error {
	var missing []string
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if in.TargetDate.IsZero() {
		missing = append(missing, "target_date")
	}
	if len(missing) > 0 {
		return &Error{Op: op, Kind: KindValidation, Detail: "Missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

type ProgressUpdate struct {
	ID        int64          `json:"id"`
	GoalID    int64          `json:"goal_id,omitempty"`
	Text      string         `json:"text"`
	Progress  float64        `json:"progress"`
	Analysis  string         `json:"analysis,omitempty"`
	CreatedAt util.Timestamp `json:"created_at"`
}
