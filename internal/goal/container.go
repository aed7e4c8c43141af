package goal

import "gorm.io/gorm"

type GoalContainer struct {
	Handler *Handler
	Service Service
	Repo    Repository
}

func NewGoalContainer(db *gorm.DB, suggester Suggester) *GoalContainer {
	repo := NewRepository(db)
	service := NewService(repo, suggester)
	handler := NewHandler(service)

	return &GoalContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
