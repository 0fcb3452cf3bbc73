package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"fatura/internal/services"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	return slog.New(newConsoleHandler(buf, lv, false))
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger = NewComponentLogger(logger, "gateway")
	logger.Info("extraction complete", String(FieldProvider, "primary"), Int("attempts", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO gateway: extraction complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "provider=primary") || !strings.Contains(line, "attempts=2") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelWarn)

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info should be suppressed: %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Fatalf("warning missing: %q", out)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Info("msg", String("path", "/tmp/invoice one.png"))
	if !strings.Contains(buf.String(), `path="/tmp/invoice one.png"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	ctx := services.WithInvoiceFile(context.Background(), "invoice_001.png")
	ctx = services.WithStage(ctx, "extraction")
	ctx = services.WithRunID(ctx, "run-1234")

	WithContext(ctx, logger).Info("working")

	line := buf.String()
	for _, want := range []string{"invoice_file=invoice_001.png", "stage=extraction", "run_id=run-1234"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
