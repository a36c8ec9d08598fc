// Package catalog imports the project catalog: the list of projects known
// up front and the GitHub organization to monitor.
//
// Two interchangeable sources are supported. A CSV file with a header row
// (name, description, organization) takes priority; a JSON array of objects
// with the same keys is used only when no CSV file exists. The organization
// is read from the first record only.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/inovacc/reposync/internal/model"
)

const (
	SourceCSV  = "csv"
	SourceJSON = "json"
)

var (
	ErrNoCatalog      = errors.New("no project catalog found")
	ErrInvalidCatalog = errors.New("invalid project catalog")
)

// Catalog is the result of an import.
type Catalog struct {
	Source       string
	Path         string
	Organization string
	Entries      []model.CatalogEntry
}

// Importer picks the first existing catalog file and parses it.
type Importer struct {
	CSVPath  string
	JSONPath string
	Logger   *slog.Logger
}

// NewImporter creates an importer for the given files.
func NewImporter(csvPath, jsonPath string, logger *slog.Logger) *Importer {
	return &Importer{CSVPath: csvPath, JSONPath: jsonPath, Logger: logger}
}

// Import reads the catalog. Records without a name are skipped with a
// warning; a missing organization is reported as an empty Organization and
// left for the caller to treat as fatal.
func (i *Importer) Import() (*Catalog, error) {
	logger := i.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		cat *Catalog
		err error
	)

	switch {
	case fileExists(i.CSVPath):
		cat, err = parseCSVFile(i.CSVPath, logger)
	case fileExists(i.JSONPath):
		cat, err = parseJSONFile(i.JSONPath, logger)
	default:
		return nil, fmt.Errorf("%w: looked for %s and %s", ErrNoCatalog, i.CSVPath, i.JSONPath)
	}

	if err != nil {
		return nil, err
	}

	if cat.Organization == "" {
		logger.Warn("organization missing from first catalog record",
			slog.String("path", cat.Path),
		)
	}

	logger.Info("project catalog parsed",
		slog.String("source", cat.Source),
		slog.String("path", cat.Path),
		slog.Int("projects", len(cat.Entries)),
	)

	return cat, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
