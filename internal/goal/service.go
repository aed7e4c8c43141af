package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidCategory = errors.New("invalid category")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrForbidden       = errors.New("not authorized")
)

// Suggester produces dashboard tips from a user's goals.
type Suggester interface {
	Suggest(ctx context.Context, goals []Goal) []string
}

type Service interface {
	Create(ctx context.Context, userID int64, dto CreateGoalDTO) (*GoalResponse, error)
	ListByUser(ctx context.Context, requester, owner int64) ([]GoalResponse, error)
	Get(ctx context.Context, userID, id int64) (*GoalResponse, error)
	Update(ctx context.Context, userID int64, dto UpdateGoalDTO) (*GoalResponse, error)
	Delete(ctx context.Context, userID, id int64) error
	Suggestions(ctx context.Context, requester, owner int64) ([]string, error)
	// Owned returns the goal when it exists and belongs to userID.
	Owned(ctx context.Context, userID, id int64) (*Goal, error)
}

type service struct {
	repo      Repository
	suggester Suggester
}

func NewService(repo Repository, suggester Suggester) Service {
	return &service{repo: repo, suggester: suggester}
}

func (s *service) Create(ctx context.Context, userID int64, dto CreateGoalDTO) (*GoalResponse, error) {
	log := config.WithContext(ctx)

	var missing []string
	if strings.TrimSpace(string(dto.Category)) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(dto.Description) == "" {
		missing = append(missing, "description")
	}
	if dto.TargetDate.IsZero() {
		missing = append(missing, "target_date")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !dto.Category.IsValid() {
		return nil, ErrInvalidCategory
	}

	goal := Goal{
		UserID:      userID,
		Category:    dto.Category,
		Description: strings.TrimSpace(dto.Description),
		TargetDate:  dto.TargetDate,
	}
	if err := s.repo.Create(&goal); err != nil {
		return nil, err
	}

	log.WithField("goal_id", goal.ID).Info("Goal created")
	return toResponse(&goal), nil
}

func (s *service) ListByUser(ctx context.Context, requester, owner int64) ([]GoalResponse, error) {
	if requester != owner {
		return nil, ErrForbidden
	}
	goals, err := s.repo.FindAllByUserID(owner)
	if err != nil {
		return nil, err
	}

	responses := make([]GoalResponse, 0, len(goals))
	for i := range goals {
		responses = append(responses, *toResponse(&goals[i]))
	}
	return responses, nil
}

func (s *service) Get(ctx context.Context, userID, id int64) (*GoalResponse, error) {
	goal, err := s.Owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(goal), nil
}

func (s *service) Update(ctx context.Context, userID int64, dto UpdateGoalDTO) (*GoalResponse, error) {
	goal, err := s.Owned(ctx, userID, dto.ID)
	if err != nil {
		return nil, err
	}

	if dto.Category != nil {
		if !dto.Category.IsValid() {
			return nil, ErrInvalidCategory
		}
		goal.Category = *dto.Category
	}
	if dto.Description != nil {
		if strings.TrimSpace(*dto.Description) == "" {
			return nil, fmt.Errorf("%w: description", ErrMissingFields)
		}
		goal.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.TargetDate != nil {
		if dto.TargetDate.IsZero() {
			return nil, fmt.Errorf("%w: target_date", ErrMissingFields)
		}
		goal.TargetDate = *dto.TargetDate
	}

	if err := s.repo.Update(goal); err != nil {
		return nil, err
	}
	return toResponse(goal), nil
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	goal, err := s.Owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(goal); err != nil {
		return err
	}
	config.WithContext(ctx).WithField("goal_id", id).Info("Goal deleted")
	return nil
}

func (s *service) Suggestions(ctx context.Context, requester, owner int64) ([]string, error) {
	if requester != owner {
		return nil, ErrForbidden
	}
	goals, err := s.repo.FindAllByUserID(owner)
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ctx, goals), nil
}

func (s *service) Owned(ctx context.Context, userID, id int64) (*Goal, error) {
	goal, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	if goal.UserID != userID {
		return nil, ErrForbidden
	}
	return goal, nil
}

func toResponse(goal *Goal) *GoalResponse {
	return &GoalResponse{
		ID:          goal.ID,
		UserID:      goal.UserID,
		Category:    goal.Category,
		Description: goal.Description,
		TargetDate:  goal.TargetDate,
		Progress:    goal.Progress,
		CreatedAt:   goal.CreatedAt,
	}
}
