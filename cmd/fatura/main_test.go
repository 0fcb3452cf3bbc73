package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
output_dir = %q
processed_dir = %q
errors_dir = %q
log_dir = %q
data_dir = %q

[gemini]
api_key = "test-key"

[openrouter]
api_key = "test-key"

[logging]
format = "json"
level = "error"
`,
		filepath.Join(base, "output"),
		filepath.Join(base, "processed"),
		filepath.Join(base, "errors"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "data"),
	)

	path := filepath.Join(base, "fatura.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output missing target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestValidateCommandValidRecord(t *testing.T) {
	cfgPath := writeTestConfig(t)
	record := filepath.Join(t.TempDir(), "record.json")
	content := `{
  "invoice_id": "UE-2025-001234",
  "vendor_name": "Uber Eats",
  "vendor_type": "ubereats",
  "invoice_date": "2025-03-01",
  "due_date": "2025-03-15",
  "currency": "USD",
  "line_items": [{"description": "Delivery services", "quantity": 10, "unit_price": 100.00}],
  "subtotal": 1000.00,
  "tax_amount": 50.00,
  "commission_rate": 0.15,
  "commission_amount": 150.00,
  "total_amount": 1050.00
}`
	if err := os.WriteFile(record, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "validate", record)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"is_valid": true`) {
		t.Errorf("output = %s", out)
	}
}

func TestValidateCommandAcceptsSuccessArtifact(t *testing.T) {
	cfgPath := writeTestConfig(t)
	artifact := filepath.Join(t.TempDir(), "UE-2025-001234.json")
	content := `{
  "invoice": {
    "invoice_id": "UE-2025-001234",
    "vendor_name": "Uber Eats",
    "vendor_type": "ubereats",
    "invoice_date": "2025-03-01",
    "due_date": "2025-03-15",
    "currency": "USD",
    "line_items": [{"description": "Delivery services", "quantity": 10, "unit_price": 100.00}],
    "subtotal": 1000.00,
    "tax_amount": 50.00,
    "commission_rate": 0.15,
    "commission_amount": 150.00,
    "total_amount": 1050.00
  },
  "metadata": {"provider_used": "primary", "confidence": 0.94}
}`
	if err := os.WriteFile(artifact, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "validate", artifact)
	if err != nil {
		t.Fatalf("validate artifact: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"is_valid": true`) {
		t.Errorf("output = %s", out)
	}
}

func TestValidateCommandInvalidRecord(t *testing.T) {
	cfgPath := writeTestConfig(t)
	record := filepath.Join(t.TempDir(), "record.json")
	if err := os.WriteFile(record, []byte(`{"vendor_name": "Unknown"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "validate", record)
	if err == nil {
		t.Fatal("expected non-zero result for invalid record")
	}
	if !strings.Contains(out, `"is_valid": false`) {
		t.Errorf("output = %s", out)
	}
}

func TestQueueStatsEmptyLedger(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "queue", "stats")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	if !strings.Contains(out, "Ledger is empty") {
		t.Errorf("output = %q", out)
	}
}

func TestProcessCommandMissingFileFails(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCommand(t, "--config", cfgPath, "process", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected failure for missing input file")
	}
}
