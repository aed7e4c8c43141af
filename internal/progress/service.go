package progress

import (
	"context"
	"errors"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/advisor"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
)

var ErrMissingText = errors.New("update text required")

type Service interface {
	Add(ctx context.Context, userID, goalID int64, text string) (*UpdateResponse, error)
	List(ctx context.Context, userID, goalID int64) ([]UpdateResponse, error)
}

type service struct {
	repo    Repository
	goals   goal.Service
	advisor advisor.Service
}

func NewService(repo Repository, goals goal.Service, adv advisor.Service) Service {
	return &service{repo: repo, goals: goals, advisor: adv}
}

func (s *service) Add(ctx context.Context, userID, goalID int64, text string) (*UpdateResponse, error) {
	log := config.WithContext(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingText
	}
	g, err := s.owned(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	analysis := s.advisor.Analyze(ctx, g.Description, text)
	update := goal.ProgressUpdate{
		GoalID:   g.ID,
		Text:     text,
		Progress: advisor.Clamp(analysis.Percentage),
		Analysis: analysis.Analysis,
	}
	if err := s.repo.Add(&update); err != nil {
		log.WithError(err).Error("Failed to store progress update")
		return nil, err
	}

	log.WithField("goal_id", goalID).WithField("progress", update.Progress).Info("Progress recorded")
	return toResponse(&update), nil
}

func (s *service) List(ctx context.Context, userID, goalID int64) ([]UpdateResponse, error) {
	if _, err := s.owned(ctx, userID, goalID); err != nil {
		return nil, err
	}
	updates, err := s.repo.ListByGoal(goalID)
	if err != nil {
		return nil, err
	}

	responses := make([]UpdateResponse, 0, len(updates))
	for i := range updates {
		responses = append(responses, *toResponse(&updates[i]))
	}
	return responses, nil
}

// owned hides other users' goals behind a not-found.
func (s *service) owned(ctx context.Context, userID, goalID int64) (*goal.Goal, error) {
	g, err := s.goals.Owned(ctx, userID, goalID)
	if errors.Is(err, goal.ErrForbidden) {
		return nil, goal.ErrGoalNotFound
	}
	return g, err
}

func toResponse(u *goal.ProgressUpdate) *UpdateResponse {
	return &UpdateResponse{
		ID:        u.ID,
		Text:      u.Text,
		Progress:  u.Progress,
		Analysis:  u.Analysis,
		CreatedAt: u.CreatedAt,
	}
}
