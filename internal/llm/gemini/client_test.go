package gemini

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "   ", "", zap.NewNop()); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestGenerateContentUninitialized(t *testing.T) {
	var g *Generator
	if _, err := g.GenerateContent(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for nil generator")
	}

	empty := &Generator{}
	if _, err := empty.GenerateContent(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for generator without client")
	}
}

func TestModelNilSafe(t *testing.T) {
	var g *Generator
	if got := g.Model(); got != "" {
		t.Fatalf("expected empty model for nil generator, got %q", got)
	}
}
