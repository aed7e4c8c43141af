package goal

import (
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(goal *Goal) error
	FindAllByUserID(userID int64) ([]Goal, error)
	FindByID(id int64) (*Goal, error)
	Update(goal *Goal) error
	Delete(goal *Goal) error
	PurgeUser(tx *gorm.DB, userID int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(goal *Goal) error {
	return r.db.Create(goal).Error
}

func (r *repository) FindAllByUserID(userID int64) ([]Goal, error) {
	var goals []Goal
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// FindByID returns nil without error when the goal does not exist.
func (r *repository) FindByID(id int64) (*Goal, error) {
	var goal Goal
	if err := r.db.First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

func (r *repository) Update(goal *Goal) error {
	return r.db.Save(goal).Error
}

// Delete removes the goal together with its progress history.
func (r *repository) Delete(goal *Goal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goal.ID).Delete(&ProgressUpdate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Goal{}, "id = ?", goal.ID).Error
	})
}

// PurgeUser deletes every goal of userID and their history using tx, so the
// account removal that calls it stays atomic.
func (r *repository) PurgeUser(tx *gorm.DB, userID int64) error {
	owned := tx.Model(&Goal{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("goal_id IN (?)", owned).Delete(&ProgressUpdate{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&Goal{}).Error
}
