package advisor

import (
	"context"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

type AdvisorContainer struct {
	Service Service
}

// NewAdvisorContainer uses Gemini when GEMINI_API_KEY or GOOGLE_API_KEY is
// set and runs without a provider otherwise.
func NewAdvisorContainer(ctx context.Context) *AdvisorContainer {
	log := config.WithContext(ctx)

	var provider Provider
	apiKey := config.GetEnv("GEMINI_API_KEY", config.GetEnv("GOOGLE_API_KEY", ""))
	if apiKey != "" {
		p, err := NewGeminiProvider(ctx, apiKey, config.GetEnv("GEMINI_MODEL", defaultModel))
		if err != nil {
			log.WithError(err).Warn("Gemini unavailable, progress analysis disabled")
		} else {
			provider = p
		}
	} else {
		log.Info("No Gemini API key, progress analysis disabled")
	}

	return &AdvisorContainer{Service: NewService(provider)}
}
