package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// CatalogDataValidator validates raw catalog payloads and decodes them
type CatalogDataValidator interface {
	// ValidateData checks data against the catalog shape for kind and returns
	// the typed entries with canonical identifiers
	ValidateData(data []byte, kind catalog.Kind) ([]catalog.Entry, error)
}

const extensionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "installUrl", "status"],
    "properties": {
      "name": {"type": "string"},
      "description": {"type": "string"},
      "authors": {"type": "array", "items": {"type": "string"}},
      "sourceUrl": {"type": "string"},
      "installUrl": {"type": "string", "minLength": 1},
      "status": {"enum": ["working", "broken", "warning"]},
      "warningMessage": {"type": "string"}
    }
  }
}`

const themeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "installUrl"],
    "properties": {
      "name": {"type": "string"},
      "description": {"type": "string"},
      "authors": {"type": "array", "items": {"type": "string"}},
      "sourceUrl": {"type": "string"},
      "installUrl": {"type": "string", "minLength": 1},
      "images": {"type": "array", "items": {"type": "string"}},
      "tags": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

var schemaSources = map[catalog.Kind]string{
	catalog.KindExtension: extensionSchema,
	catalog.KindTheme:     themeSchema,
}

// DefaultCatalogDataValidator is the default implementation of CatalogDataValidator
type DefaultCatalogDataValidator struct {
	once    sync.Once
	schemas map[catalog.Kind]*jsonschema.Schema
	initErr error
}

// NewCatalogDataValidator creates a new default catalog validator
func NewCatalogDataValidator() CatalogDataValidator {
	return &DefaultCatalogDataValidator{}
}

func (v *DefaultCatalogDataValidator) compile() error {
	v.once.Do(func() {
		v.schemas = make(map[catalog.Kind]*jsonschema.Schema, len(schemaSources))
		compiler := jsonschema.NewCompiler()
		for kind, src := range schemaSources {
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
			if err != nil {
				v.initErr = fmt.Errorf("failed to load %s schema: %w", kind, err)
				return
			}
			resource := string(kind) + ".schema.json"
			if err := compiler.AddResource(resource, doc); err != nil {
				v.initErr = fmt.Errorf("failed to add %s schema: %w", kind, err)
				return
			}
			schema, err := compiler.Compile(resource)
			if err != nil {
				v.initErr = fmt.Errorf("failed to compile %s schema: %w", kind, err)
				return
			}
			v.schemas[kind] = schema
		}
	})
	return v.initErr
}

// ValidateData validates raw data and returns the decoded entries
func (v *DefaultCatalogDataValidator) ValidateData(data []byte, kind catalog.Kind) ([]catalog.Entry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	if !gjson.ParseBytes(data).IsArray() {
		return nil, fmt.Errorf("payload must be a JSON array of entries")
	}

	if err := v.compile(); err != nil {
		return nil, err
	}
	schema, ok := v.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported catalog kind: %s", kind)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("payload does not match %s schema: %w", kind, err)
	}

	var entries []catalog.Entry
	switch kind {
	case catalog.KindExtension:
		entries, err = decodeExtensions(data)
	case catalog.KindTheme:
		entries, err = decodeThemes(data)
	default:
		return nil, fmt.Errorf("unsupported catalog kind: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// checkUniqueIDs rejects catalogs where two entries share a canonical installUrl
func checkUniqueIDs(entries []catalog.Entry) error {
	first := make(map[string]int, len(entries))
	for i, e := range entries {
		if j, ok := first[e.ID()]; ok {
			return fmt.Errorf("duplicate installUrl %q at entries %d and %d", e.ID(), j, i)
		}
		first[e.ID()] = i
	}
	return nil
}

func decodeExtensions(data []byte) ([]catalog.Entry, error) {
	var records []catalog.Extension
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse extension catalog: %w", err)
	}
	entries := make([]catalog.Entry, len(records))
	for i := range records {
		ext := records[i]
		ext.InstallURL = catalog.Canonicalize(ext.InstallURL)
		entries[i] = &ext
	}
	return entries, nil
}

func decodeThemes(data []byte) ([]catalog.Entry, error) {
	var records []catalog.Theme
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse theme catalog: %w", err)
	}
	entries := make([]catalog.Entry, len(records))
	for i := range records {
		theme := records[i]
		theme.InstallURL = catalog.Canonicalize(theme.InstallURL)
		entries[i] = &theme
	}
	return entries, nil
}
