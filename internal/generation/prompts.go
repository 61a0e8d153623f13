// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package generation

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/lingualab/lingualab/internal/models"
)

const defaultLevel = "intermediate"

func levelOrDefault(level string) string {
	if level == "" {
		return defaultLevel
	}
	return level
}

func wordSetPrompt(req models.GenerateRequest, count int) string {
	return fmt.Sprintf(
		"Create a vocabulary word set of %d %s-level %s terms used in the field of %s. "+
			"For each term give an English translation, its part of speech, and one example sentence in %s.",
		count, levelOrDefault(req.Level), req.Language, req.Field, req.Language)
}

func conversationPrompt(req models.GenerateRequest, turns int) string {
	return fmt.Sprintf(
		"Write a realistic workplace conversation in %s between two professionals in the field of %s, "+
			"at %s level, with about %d turns. Give each turn an English translation and the dialogue a short title.",
		req.Language, req.Field, levelOrDefault(req.Level), turns)
}

// wordSetSchema constrains Gemini's structured output to the WordSet shape.
var wordSetSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Required: []string{"language", "field", "level", "words"},
	Properties: map[string]*genai.Schema{
		"language": {Type: genai.TypeString},
		"field":    {Type: genai.TypeString},
		"level":    {Type: genai.TypeString},
		"words": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:     genai.TypeObject,
				Required: []string{"term", "translation", "part_of_speech", "example"},
				Properties: map[string]*genai.Schema{
					"term":           {Type: genai.TypeString},
					"translation":    {Type: genai.TypeString},
					"part_of_speech": {Type: genai.TypeString},
					"example":        {Type: genai.TypeString},
				},
			},
		},
	},
}

var conversationSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Required: []string{"language", "field", "level", "title", "turns"},
	Properties: map[string]*genai.Schema{
		"language": {Type: genai.TypeString},
		"field":    {Type: genai.TypeString},
		"level":    {Type: genai.TypeString},
		"title":    {Type: genai.TypeString},
		"turns": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:     genai.TypeObject,
				Required: []string{"speaker", "text", "translation"},
				Properties: map[string]*genai.Schema{
					"speaker":     {Type: genai.TypeString},
					"text":        {Type: genai.TypeString},
					"translation": {Type: genai.TypeString},
				},
			},
		},
	},
}
