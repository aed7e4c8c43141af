package goal

import (
	"time"

	util "github.com/saulo-duarte/goal-tracker/internal/utils"
)

type CreateGoalDTO struct {
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	TargetDate  util.Date `json:"target_date"`
}

// UpdateGoalDTO changes only the fields that are present.
type UpdateGoalDTO struct {
	ID          int64      `json:"id"`
	Category    *Category  `json:"category"`
	Description *string    `json:"description"`
	TargetDate  *util.Date `json:"target_date"`
}

type GoalResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	TargetDate  util.Date `json:"target_date"`
	Progress    float64   `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
}
