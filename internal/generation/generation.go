// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package generation produces learning content with a hosted LLM.
//
// The only implementation talks to Google Gemini through the official
// genai SDK. Calls are guarded by an outbound rate limiter, a circuit
// breaker, and bounded retries so a degraded upstream cannot pile up
// goroutines or burn through the API quota.
package generation

import (
	"context"
	"errors"

	"github.com/lingualab/lingualab/internal/models"
)

// ErrUnavailable reports that the content provider rejected the call
// before it reached the network, either because the circuit breaker is
// open or the outbound rate limit could not be satisfied in time.
var ErrUnavailable = errors.New("generation: provider unavailable")

// WordEntry is a single vocabulary item inside a word set.
type WordEntry struct {
	Term         string `json:"term"`
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"part_of_speech"`
	Example      string `json:"example"`
}

// WordSet is a themed vocabulary list for one language and field.
type WordSet struct {
	Language string      `json:"language"`
	Field    string      `json:"field"`
	Level    string      `json:"level"`
	Words    []WordEntry `json:"words"`
}

// ConversationTurn is one utterance in a practice dialogue.
type ConversationTurn struct {
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Conversation is a practice dialogue situated in a professional field.
type Conversation struct {
	Language string             `json:"language"`
	Field    string             `json:"field"`
	Level    string             `json:"level"`
	Title    string             `json:"title"`
	Turns    []ConversationTurn `json:"turns"`
}

// Generator produces learning content for a validated request.
type Generator interface {
	WordSet(ctx context.Context, req models.GenerateRequest) (*WordSet, error)
	Conversation(ctx context.Context, req models.GenerateRequest) (*Conversation, error)
}

// Unavailable is a Generator that rejects every call with ErrUnavailable.
// It stands in when no API key is configured so the rest of the API stays up.
type Unavailable struct{}

func (Unavailable) WordSet(context.Context, models.GenerateRequest) (*WordSet, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Conversation(context.Context, models.GenerateRequest) (*Conversation, error) {
	return nil, ErrUnavailable
}
