package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fatura/internal/invoice"
)

const testSchema = `{"type":"object"}`

func TestPromptSubstitutesSchema(t *testing.T) {
	store := NewStore("", testSchema)

	prompt, err := store.Prompt(invoice.VendorGeneric)
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if !strings.Contains(prompt, testSchema) {
		t.Error("schema not substituted")
	}
	if strings.Contains(prompt, SchemaPlaceholder) {
		t.Error("placeholder left in rendered prompt")
	}
}

func TestPromptVendorTemplates(t *testing.T) {
	store := NewStore("", testSchema)

	for _, vendor := range invoice.AllVendorTypes() {
		prompt, err := store.Prompt(vendor)
		if err != nil {
			t.Errorf("Prompt(%s): %v", vendor, err)
			continue
		}
		if !strings.Contains(prompt, "JSON") {
			t.Errorf("Prompt(%s) missing JSON instruction", vendor)
		}
	}

	ubereats, err := store.Prompt(invoice.VendorUberEats)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ubereats, "Uber Eats") {
		t.Error("ubereats template not vendor specific")
	}
}

func TestPromptOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	custom := "custom template with {schema} inside"
	if err := os.WriteFile(filepath.Join(dir, "generic.txt"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir, testSchema)
	prompt, err := store.Prompt(invoice.VendorGeneric)
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if prompt != "custom template with "+testSchema+" inside" {
		t.Errorf("override not used: %q", prompt)
	}

	// Vendors without an override still use the embedded template.
	fallbackPrompt, err := store.Prompt(invoice.VendorDoorDash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fallbackPrompt, "DoorDash") {
		t.Error("embedded template not used for non-overridden vendor")
	}
}
