package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Gemini.Model != defaultGeminiModel {
		t.Errorf("model = %q, want default", cfg.Gemini.Model)
	}
	if cfg.Batch.Workers != defaultBatchWorkers {
		t.Errorf("workers = %d, want %d", cfg.Batch.Workers, defaultBatchWorkers)
	}
	if cfg.Extraction.LLMConfidenceDefault != defaultLLMConfidenceDefault {
		t.Errorf("llm_confidence_default = %v", cfg.Extraction.LLMConfidenceDefault)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "env-or-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"

[gemini]
api_key = "  direct-key  "
base_url = "https://example.test/v1beta/"

[extraction]
default_vendor = "DoorDash"

[batch]
workers = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Gemini.APIKey != "direct-key" {
		t.Errorf("api key not trimmed: %q", cfg.Gemini.APIKey)
	}
	if strings.HasSuffix(cfg.Gemini.BaseURL, "/") {
		t.Errorf("base url should be trimmed: %q", cfg.Gemini.BaseURL)
	}
	if cfg.OpenRouter.APIKey != "env-or-key" {
		t.Errorf("env fallback not applied: %q", cfg.OpenRouter.APIKey)
	}
	if cfg.Extraction.DefaultVendor != "doordash" {
		t.Errorf("default vendor not lowered: %q", cfg.Extraction.DefaultVendor)
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Batch.Workers)
	}
	if cfg.Paths.ProcessedDir == defaultProcessedDir {
		t.Error("processed dir should be expanded, not raw default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[batch]
workers = -1

[logging]
level = "loud"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "batch.workers") {
		t.Errorf("missing workers complaint: %v", err)
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("missing level complaint: %v", err)
	}
}

func TestValidateVendor(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Extraction.DefaultVendor = "netflix"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown vendor error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[gemini]") {
		t.Error("sample missing gemini section")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/fatura")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "fatura") {
		t.Errorf("expandPath = %q", got)
	}
}
