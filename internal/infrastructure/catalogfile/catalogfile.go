// Package catalogfile loads extra per-category document requirements from YAML.
//
//	required_documents:
//	  RESTAURANT: [TRADE_LICENSE]
//	  PHARMACY: [BANK_STATEMENT]
//
// Entries only add to the built-in catalog.
package catalogfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

type fileFormat struct {
	RequiredDocuments map[string][]string `yaml:"required_documents"`
}

// Load reads path. An empty path yields the built-in catalog.
func Load(path string) (*domain.RequirementCatalog, error) {
	if path == "" {
		return domain.NewRequirementCatalog(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	catalog, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return catalog, nil
}

func Parse(r io.Reader) (*domain.RequirementCatalog, error) {
	var f fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	extra := make(map[domain.BusinessCategory][]domain.DocumentType, len(f.RequiredDocuments))
	for rawCategory, rawTypes := range f.RequiredDocuments {
		category, err := domain.ParseBusinessCategory(rawCategory)
		if err != nil {
			return nil, err
		}
		for _, rawType := range rawTypes {
			docType, err := domain.ParseDocumentType(rawType)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", category, err)
			}
			extra[category] = append(extra[category], docType)
		}
	}
	return domain.NewRequirementCatalog(extra), nil
}
