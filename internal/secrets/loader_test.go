package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte("  s3cret \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	got, err := Load(Source{Name: "api key", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("expected trimmed secret, got %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARXIV_DIGEST_TEST_SECRET", " from-env ")

	got, err := Load(Source{Name: "webhook secret", Env: "ARXIV_DIGEST_TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected trimmed env secret, got %q", got)
	}
}

func TestLoadMissingEnv(t *testing.T) {
	_, err := Load(Source{Name: "webhook secret", Env: "ARXIV_DIGEST_TEST_UNSET"})
	if err == nil {
		t.Fatalf("expected error for unset environment variable")
	}
	if !strings.Contains(err.Error(), "ARXIV_DIGEST_TEST_UNSET") {
		t.Fatalf("expected error to name the variable, got %q", err.Error())
	}
}

func TestLoadPrecedenceAndFallback(t *testing.T) {
	got, err := Load(Source{Name: "api key", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline value, got %q", got)
	}

	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatalf("expected error when nothing is configured")
	}
}
