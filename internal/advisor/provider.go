package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/config"
	"google.golang.org/genai"
)

var ErrUnparsable = errors.New("model reply is not a valid analysis")

const defaultModel = "gemini-2.0-flash"

type Provider interface {
	SendPrompt(ctx context.Context, system, user string) (*Analysis, error)
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) SendPrompt(ctx context.Context, system, user string) (*Analysis, error) {
	log := config.WithContext(ctx)

	result, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		genai.Text(system+"\n\n"+user),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := result.Text()
	log.Debugf("[ADVISOR] Raw model reply:\n%s", raw)
	return ParseAnalysis(raw)
}

// ParseAnalysis reads the JSON reply of a model, tolerating markdown fences
// around it, and clamps the percentage.
func ParseAnalysis(raw string) (*Analysis, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(strings.Trim(clean, "`"))
	if clean == "" {
		return nil, ErrUnparsable
	}

	var reply struct {
		Percentage *json.Number `json:"percentage"`
		Analysis   string       `json:"analysis"`
	}
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if reply.Percentage == nil {
		return nil, fmt.Errorf("%w: no percentage", ErrUnparsable)
	}
	pct, err := reply.Percentage.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return &Analysis{Percentage: Clamp(pct), Analysis: strings.TrimSpace(reply.Analysis)}, nil
}

func Clamp(pct float64) float64 {
	switch {
	case math.IsNaN(pct), pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
