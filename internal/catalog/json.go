package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/inovacc/reposync/internal/model"
	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema accepts any non-empty array of objects. Per-item problems
// are handled while decoding so one bad item does not reject the file.
const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "name": {},
      "description": {},
      "organization": {}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(catalogSchema)

func parseJSONFile(path string, logger *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	cat, err := ParseJSON(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cat.Path = path

	return cat, nil
}

type jsonEntry struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Organization string `json:"organization"`
}

// ParseJSON reads a catalog from a JSON array of objects.
func ParseJSON(data []byte, logger *slog.Logger) (*Catalog, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			problems[i] = e.String()
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	cat := &Catalog{Source: SourceJSON}

	for i, raw := range items {
		var item jsonEntry
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Warn("skipping malformed catalog item",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)

			continue
		}

		if i == 0 {
			cat.Organization = strings.TrimSpace(item.Organization)
		}

		if strings.TrimSpace(item.Name) == "" {
			logger.Warn("skipping catalog item without name", slog.Int("index", i))
			continue
		}

		cat.Entries = append(cat.Entries, model.CatalogEntry{
			Name:         strings.TrimSpace(item.Name),
			Description:  strings.TrimSpace(item.Description),
			Organization: strings.TrimSpace(item.Organization),
		})
	}

	return cat, nil
}
