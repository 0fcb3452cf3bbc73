package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fatura/internal/invoice"
)

//go:embed templates/*.txt
var defaultTemplates embed.FS

// SchemaPlaceholder is replaced with the JSON schema in every rendered prompt.
const SchemaPlaceholder = "{schema}"

// Store resolves extraction prompts per vendor. Built-in templates ship
// embedded; an optional override directory lets operators replace any of
// them without rebuilding.
type Store struct {
	overrideDir string
	schema      string
}

// NewStore constructs a Store. overrideDir may be empty, in which case only
// embedded templates are used. schema is the JSON schema text substituted
// into rendered prompts.
func NewStore(overrideDir, schema string) *Store {
	return &Store{
		overrideDir: strings.TrimSpace(overrideDir),
		schema:      schema,
	}
}

// Prompt renders the extraction prompt for the given vendor. Vendors without
// a dedicated template fall back to the generic one.
func (s *Store) Prompt(vendor invoice.VendorType) (string, error) {
	raw, err := s.load(vendor)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(raw, SchemaPlaceholder, s.schema), nil
}

func (s *Store) load(vendor invoice.VendorType) (string, error) {
	name := string(vendor) + ".txt"

	if s.overrideDir != "" {
		path := filepath.Join(s.overrideDir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read prompt template %s: %w", path, err)
		}
	}

	data, err := defaultTemplates.ReadFile("templates/" + name)
	if err == nil {
		return string(data), nil
	}

	data, err = defaultTemplates.ReadFile("templates/generic.txt")
	if err != nil {
		return "", fmt.Errorf("load generic prompt template: %w", err)
	}
	return string(data), nil
}
