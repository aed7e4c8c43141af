package progress

import (
	"github.com/saulo-duarte/goal-tracker/internal/advisor"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
	"gorm.io/gorm"
)

type ProgressContainer struct {
	Handler *Handler
	Service Service
}

func NewProgressContainer(db *gorm.DB, goals goal.Service, adv advisor.Service) *ProgressContainer {
	repo := NewRepository(db)
	service := NewService(repo, goals, adv)
	handler := NewHandler(service)

	return &ProgressContainer{
		Handler: handler,
		Service: service,
	}
}
