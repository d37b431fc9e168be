package domain

import (
	"errors"
	"testing"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name     string
		question string
		imageURL string
		wantErr  error
		wantKind PromptKind
	}{
		{"question only", "What is a contract?", "", nil, PromptKindText},
		{"image only", "", "https://example.com/cat.png", nil, PromptKindVision},
		{"question and image", "What is this?", "https://example.com/cat.png", nil, PromptKindVision},
		{"both empty", "", "", ErrEmptyPrompt, 0},
		{"whitespace only", "   ", " \t ", ErrEmptyPrompt, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prompt, err := NewPrompt(test.question, test.imageURL)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("NewPrompt() error = %v, want %v", err, test.wantErr)
			}
			if err != nil {
				return
			}
			if prompt.Kind() != test.wantKind {
				t.Errorf("Kind() = %v, want %v", prompt.Kind(), test.wantKind)
			}
		})
	}
}

func TestNewPromptTrimsFields(t *testing.T) {
	prompt, err := NewPrompt("  hello  ", " https://example.com/img.png ")
	if err != nil {
		t.Fatalf("NewPrompt() error = %v", err)
	}
	if prompt.Question != "hello" {
		t.Errorf("Question = %q, want %q", prompt.Question, "hello")
	}
	if prompt.ImageURL != "https://example.com/img.png" {
		t.Errorf("ImageURL = %q, want %q", prompt.ImageURL, "https://example.com/img.png")
	}
}
