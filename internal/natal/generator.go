// Package natal collects birth data and turns it into a natal chart narrative.
package natal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrEmptyNarrative is returned when the model produced no text.
var ErrEmptyNarrative = errors.New("empty narrative")

// Generator produces a free-text natal chart description.
type Generator interface {
	Generate(ctx context.Context, data BirthData) (string, error)
}

// contentGenerator is the part of genai.Models we call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures GeminiGenerator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiGenerator asks a Gemini model for the narrative.
type GeminiGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg), nil
}

func newGeminiGenerator(models contentGenerator, cfg GeminiConfig) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiGenerator{models: models, model: cfg.Model, timeout: cfg.Timeout}
}

// Generate builds the prompt from data and returns the model's answer.
func (g *GeminiGenerator) Generate(ctx context.Context, data BirthData) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.models.GenerateContent(
		ctx,
		g.model,
		genai.Text(Prompt(data)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.8),
			MaxOutputTokens: 1000,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate natal chart: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyNarrative
	}
	return text, nil
}

// Prompt is the instruction sent to the model.
func Prompt(data BirthData) string {
	return fmt.Sprintf(
		"Составь подробное, красивое, вдохновляющее описание натальной карты для:\n"+
			"Дата рождения: %s\n"+
			"Время рождения: %s\n"+
			"Место рождения: %s\n\n"+
			"Опиши важные аспекты личности, призвание, чувства, сильные и слабые стороны. "+
			"На русском языке. Без сложных терминов.",
		data.Date.Format(DateLayout), data.Time, data.Place,
	)
}
