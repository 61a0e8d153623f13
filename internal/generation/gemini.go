// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/metrics"
	"github.com/lingualab/lingualab/internal/models"
)

// Config controls the Gemini-backed generator.
type Config struct {
	// APIKey is the Google AI API key. Required.
	APIKey string

	// Model is the Gemini model name.
	Model string

	// Timeout bounds a single upstream call, retries excluded.
	Timeout time.Duration

	// Attempts is the total number of tries per request.
	Attempts int

	// RequestsPerSecond throttles outbound calls across all users.
	RequestsPerSecond float64

	// Burst is the outbound limiter's burst allowance.
	Burst int

	// WordCount is the number of entries requested per word set.
	WordCount int

	// ConversationTurns is the approximate dialogue length.
	ConversationTurns int
}

func (c *Config) setDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.WordCount <= 0 {
		c.WordCount = 12
	}
	if c.ConversationTurns <= 0 {
		c.ConversationTurns = 8
	}
}

// GeminiGenerator implements Generator over the Google genai SDK.
type GeminiGenerator struct {
	client  *genai.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// NewGeminiGenerator creates a generator and verifies its configuration.
// Constructors should not require a caller context, so client setup uses
// context.Background.
func NewGeminiGenerator(cfg Config) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generation: API key is required")
	}
	cfg.setDefaults()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("generation: create client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "gemini",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerOpen(to == gobreaker.StateOpen)
			logging.Warn().
				Str("component", "generation").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &GeminiGenerator{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
	}, nil
}

// WordSet generates a themed vocabulary list.
func (g *GeminiGenerator) WordSet(ctx context.Context, req models.GenerateRequest) (*WordSet, error) {
	start := time.Now()
	raw, err := g.generateJSON(ctx, wordSetPrompt(req, g.cfg.WordCount), wordSetSchema)
	metrics.RecordGeneration(string(eventlog.ActionWordSet), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	set, err := decodeWordSet(raw)
	if err != nil {
		return nil, err
	}
	set.Language = req.Language
	set.Field = req.Field
	set.Level = levelOrDefault(req.Level)
	return set, nil
}

// Conversation generates a practice dialogue.
func (g *GeminiGenerator) Conversation(ctx context.Context, req models.GenerateRequest) (*Conversation, error) {
	start := time.Now()
	raw, err := g.generateJSON(ctx, conversationPrompt(req, g.cfg.ConversationTurns), conversationSchema)
	metrics.RecordGeneration(string(eventlog.ActionConversation), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	conv, err := decodeConversation(raw)
	if err != nil {
		return nil, err
	}
	conv.Language = req.Language
	conv.Field = req.Field
	conv.Level = levelOrDefault(req.Level)
	return conv, nil
}

// generateJSON runs one structured-output call through the limiter, the
// breaker, and the retry budget, returning the raw JSON text.
func (g *GeminiGenerator) generateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	text, err := g.breaker.Execute(func() (string, error) {
		return retry.NewWithData[string](
			retry.Context(ctx),
			retry.Attempts(uint(g.cfg.Attempts)),
			retry.Delay(500*time.Millisecond),
			retry.MaxDelay(5*time.Second),
			retry.LastErrorOnly(true),
		).Do(func() (string, error) {
			return g.callModel(ctx, prompt, schema)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", err
	}
	return text, nil
}

func (g *GeminiGenerator) callModel(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      genai.Ptr(float32(0.7)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generation: model call: %w", err)
	}
	return firstText(resp)
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("generation: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("generation: response carried no text")
	}
	return b.String(), nil
}

func decodeWordSet(raw string) (*WordSet, error) {
	var set WordSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, fmt.Errorf("generation: decode word set: %w", err)
	}
	if len(set.Words) == 0 {
		return nil, errors.New("generation: word set has no entries")
	}
	return &set, nil
}

func decodeConversation(raw string) (*Conversation, error) {
	var conv Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("generation: decode conversation: %w", err)
	}
	if len(conv.Turns) == 0 {
		return nil, errors.New("generation: conversation has no turns")
	}
	return &conv, nil
}
