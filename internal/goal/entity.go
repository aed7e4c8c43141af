package goal

import (
	"time"

	"github.com/saulo-duarte/goal-tracker/internal/user"
	util "github.com/saulo-duarte/goal-tracker/internal/utils"
)

// Goal.Progress always holds the percentage of the latest progress update.
type Goal struct {
	ID          int64            `gorm:"primaryKey" json:"id"`
	UserID      int64            `gorm:"index;not null" json:"user_id"`
	User        user.User        `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Category    Category         `gorm:"not null" json:"category"`
	Description string           `gorm:"type:text;not null" json:"description"`
	TargetDate  util.Date        `gorm:"type:date;not null" json:"target_date"`
	Progress    float64          `gorm:"not null;default:0" json:"progress"`
	Updates     []ProgressUpdate `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ProgressUpdate struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	GoalID    int64     `gorm:"index;not null" json:"goal_id"`
	Text      string    `gorm:"column:update_text;type:text;not null" json:"text"`
	Progress  float64   `gorm:"column:progress_value;not null" json:"progress"`
	Analysis  string    `gorm:"type:text" json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}
