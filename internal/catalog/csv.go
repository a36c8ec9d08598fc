package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/inovacc/reposync/internal/model"
)

func parseCSVFile(path string, logger *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	cat, err := ParseCSV(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cat.Path = path

	return cat, nil
}

// ParseCSV reads a catalog with a header row. Column order is free; the
// "name" column is required.
func ParseCSV(r io.Reader, logger *slog.Logger) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrInvalidCatalog)
		}

		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidCatalog, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("%w: csv header has no name column", ErrInvalidCatalog)
	}

	field := func(record []string, col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[idx])
	}

	cat := &Catalog{Source: SourceCSV}
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("skipping malformed catalog row",
					slog.Int("line", parseErr.Line),
					slog.String("error", parseErr.Err.Error()),
				)

				continue
			}

			return nil, fmt.Errorf("reading csv: %w", err)
		}

		if first {
			cat.Organization = field(record, "organization")
			first = false
		}

		entry := model.CatalogEntry{
			Name:         field(record, "name"),
			Description:  field(record, "description"),
			Organization: field(record, "organization"),
		}

		if entry.Name == "" {
			line, _ := reader.FieldPos(0)
			logger.Warn("skipping catalog row without name", slog.Int("line", line))

			continue
		}

		cat.Entries = append(cat.Entries, entry)
	}

	return cat, nil
}
