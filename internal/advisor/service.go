package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
)

var starterSuggestions = []string{
	"Start by creating a SMART goal - Specific, Measurable, Achievable, Relevant, and Time-bound",
	"Consider breaking down your future goals into smaller, manageable tasks",
	"Set up regular check-ins to track your progress",
}

type Service interface {
	// Analyze never fails; problems with the provider degrade to a 0%
	// analysis with an explanatory message.
	Analyze(ctx context.Context, goalDescription, updateText string) Analysis
	Suggest(ctx context.Context, goals []goal.Goal) []string
}

type service struct {
	provider Provider
}

// NewService accepts a nil provider, in which case analysis is unavailable.
func NewService(provider Provider) Service {
	return &service{provider: provider}
}

func (s *service) Analyze(ctx context.Context, goalDescription, updateText string) Analysis {
	log := config.WithContext(ctx)

	if s.provider == nil {
		return Analysis{Percentage: 0, Analysis: unavailableAnalysis}
	}

	result, err := s.provider.SendPrompt(ctx, systemPrompt, BuildUserPrompt(goalDescription, updateText))
	switch {
	case errors.Is(err, ErrUnparsable):
		log.WithError(err).Warn("Could not parse progress analysis")
		return Analysis{Percentage: 0, Analysis: unparsableAnalysis}
	case err != nil || result == nil:
		log.WithError(err).Error("Progress analysis failed")
		return Analysis{Percentage: 0, Analysis: failedAnalysis}
	}

	result.Percentage = Clamp(result.Percentage)
	return *result
}

func (s *service) Suggest(ctx context.Context, goals []goal.Goal) []string {
	if len(goals) == 0 {
		return append([]string(nil), starterSuggestions...)
	}
	first := goals[0]
	return []string{
		fmt.Sprintf("For your %s goal: Break down '%s' into weekly milestones", first.Category, first.Description),
		"Track your progress regularly and adjust your approach as needed",
		"Share your goals with others for accountability",
	}
}
