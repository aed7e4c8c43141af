package user

import (
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(u *User) error
	FindByID(id int64) (*User, error)
	FindByUsername(username string) (*User, error)
	FindByEmail(email string) (*User, error)
	Update(u *User) error
	Delete(id int64) error
}

// Purger removes the records another feature keeps for a user. It runs
// inside the transaction that deletes the account.
type Purger interface {
	PurgeUser(tx *gorm.DB, userID int64) error
}

type repository struct {
	db      *gorm.DB
	purgers []Purger
}

func NewRepository(db *gorm.DB, purgers ...Purger) Repository {
	return &repository{db: db, purgers: purgers}
}

func (r *repository) Create(u *User) error {
	return r.db.Create(u).Error
}

func (r *repository) FindByID(id int64) (*User, error) {
	return r.first("id = ?", id)
}

func (r *repository) FindByUsername(username string) (*User, error) {
	return r.first("username = ?", username)
}

func (r *repository) FindByEmail(email string) (*User, error) {
	return r.first("email = ?", email)
}

func (r *repository) Update(u *User) error {
	return r.db.Save(u).Error
}

// Delete removes the account and everything purgers own for it.
func (r *repository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range r.purgers {
			if err := p.PurgeUser(tx, id); err != nil {
				return err
			}
		}
		return tx.Delete(&User{}, "id = ?", id).Error
	})
}

// first returns nil without error when nothing matches.
func (r *repository) first(query string, arg interface{}) (*User, error) {
	var u User
	if err := r.db.Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
