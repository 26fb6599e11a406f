package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/phones.yaml
var defaultCatalogYAML []byte

// Document is the on-disk layout of a catalog file.
type Document struct {
	Version  string `yaml:"version" json:"version"`
	Currency string `yaml:"currency" json:"currency"`
	Phones   []Item `yaml:"phones" json:"phones"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("load embedded catalog: %w", err)
	}
	return c, nil
}

// DefaultDocument returns the bundled catalog in document form.
func DefaultDocument() (*Document, error) {
	return ParseDocument(defaultCatalogYAML)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return New(doc.Phones)
}

// ParseDocument decodes a YAML catalog document without validating it.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	for i := range doc.Phones {
		if doc.Phones[i].Price.Currency == "" {
			doc.Phones[i].Price.Currency = doc.Currency
		}
	}
	return &doc, nil
}

// FromSource loads the catalog from one of the supported sources:
// "embedded", "file" (YAML at path), "sqlite" (database at path) or
// "postgres" (dsn).
func FromSource(ctx context.Context, source, path, dsn string) (*Catalog, error) {
	switch source {
	case "", "embedded":
		return Default()
	case "file":
		return LoadFile(path)
	case "sqlite", "postgres":
		target := dsn
		if source == "sqlite" {
			target = path
		}
		store, err := OpenStore(ctx, source, target)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", source)
	}
}
