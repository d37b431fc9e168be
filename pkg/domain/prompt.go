package domain

import (
	"errors"
	"strings"
)

var ErrEmptyPrompt = errors.New("Question or Image URL is required.")

// PromptKind tags the two upstream message shapes so callers can switch
// exhaustively instead of re-checking optional fields.
type PromptKind int

const (
	PromptKindText PromptKind = iota
	PromptKindVision
)

type Prompt struct {
	Question string
	ImageURL string
}

func NewPrompt(question, imageURL string) (Prompt, error) {
	p := Prompt{
		Question: strings.TrimSpace(question),
		ImageURL: strings.TrimSpace(imageURL),
	}
	if p.Question == "" && p.ImageURL == "" {
		return Prompt{}, ErrEmptyPrompt
	}
	return p, nil
}

func (p Prompt) Kind() PromptKind {
	if p.ImageURL != "" {
		return PromptKindVision
	}
	return PromptKindText
}
