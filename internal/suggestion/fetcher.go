// Package suggestion loads advisory tips for the dashboard.
package suggestion

import (
	"context"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

// Fallback is shown whenever the server cannot provide suggestions.
var Fallback = []string{
	"Start by creating your first goal",
	"Break down your goals into manageable tasks",
	"Track your progress regularly",
}

type Source interface {
	Suggestions(ctx context.Context, userID string) ([]string, error)
}

type Fetcher struct {
	source Source
}

func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch never fails. Any error, or an empty list, yields a copy of Fallback.
func (f *Fetcher) Fetch(ctx context.Context, userID string) []string {
	log := config.WithContext(ctx).WithField("user_id", userID)

	tips, err := f.source.Suggestions(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to load suggestions; using defaults")
		return fallback()
	}
	if len(tips) == 0 {
		log.Debug("Server returned no suggestions; using defaults")
		return fallback()
	}
	return tips
}

func fallback() []string {
	out := make([]string, len(Fallback))
	copy(out, Fallback)
	return out
}
