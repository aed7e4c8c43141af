package progress

import (
	"github.com/saulo-duarte/goal-tracker/internal/goal"
	"gorm.io/gorm"
)

type Repository interface {
	// Add stores the update and moves the goal's progress to it atomically.
	Add(update *goal.ProgressUpdate) error
	ListByGoal(goalID int64) ([]goal.ProgressUpdate, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Add(update *goal.ProgressUpdate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(update).Error; err != nil {
			return err
		}
		return tx.Model(&goal.Goal{}).
			Where("id = ?", update.GoalID).
			Update("progress", update.Progress).Error
	})
}

func (r *repository) ListByGoal(goalID int64) ([]goal.ProgressUpdate, error) {
	var updates []goal.ProgressUpdate
	if err := r.db.
		Where("goal_id = ?", goalID).
		Order("created_at DESC, id DESC").
		Find(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}
