package container

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/saulo-duarte/goal-tracker/internal/advisor"
	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
	"github.com/saulo-duarte/goal-tracker/internal/progress"
	"github.com/saulo-duarte/goal-tracker/internal/router"
	"github.com/saulo-duarte/goal-tracker/internal/user"
)

type Container struct {
	UserContainer     *user.UserContainer
	GoalContainer     *goal.GoalContainer
	ProgressContainer *progress.ProgressContainer
	AdvisorContainer  *advisor.AdvisorContainer
	DB                *gorm.DB
}

// New reads the environment, connects the database and wires every feature.
func New(ctx context.Context) (*Container, error) {
	config.Init()
	auth.Init()

	if err := config.Connect(ctx, config.GetEnv("DATABASE_DSN", "")); err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return NewWithDB(ctx, config.DB, advisor.NewAdvisorContainer(ctx))
}

// NewWithDB migrates db and builds the features on top of it.
func NewWithDB(ctx context.Context, db *gorm.DB, advisorContainer *advisor.AdvisorContainer) (*Container, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}

	userContainer := user.NewUserContainer(db, goal.NewRepository(db))
	goalContainer := goal.NewGoalContainer(db, advisorContainer.Service)
	progressContainer := progress.NewProgressContainer(db, goalContainer.Service, advisorContainer.Service)

	config.WithContext(ctx).Info("Containers initialized")
	return &Container{
		UserContainer:     userContainer,
		GoalContainer:     goalContainer,
		ProgressContainer: progressContainer,
		AdvisorContainer:  advisorContainer,
		DB:                db,
	}, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}, &goal.Goal{}, &goal.ProgressUpdate{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (c *Container) Router() http.Handler {
	return router.New(router.RouterConfig{
		UserHandler:     c.UserContainer.Handler,
		GoalHandler:     c.GoalContainer.Handler,
		ProgressHandler: c.ProgressContainer.Handler,
		DB:              c.DB,
	})
}
