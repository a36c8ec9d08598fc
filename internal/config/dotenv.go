package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// LoadDotEnv reads KEY=VALUE pairs from a dotenv file. A missing file
// returns an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	values := make(map[string]string)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return values, nil
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	for _, key := range file.Section(ini.DefaultSection).Keys() {
		values[strings.TrimPrefix(key.Name(), "export ")] = key.String()
	}

	return values, nil
}
