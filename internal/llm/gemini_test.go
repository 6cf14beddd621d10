package llm

import (
	"context"
	"testing"

	"elior-fitness/internal/config"
)

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), &config.Config{})
	if err == nil {
		t.Error("Expected error when GEMINI_API_KEY is missing")
	}
}
