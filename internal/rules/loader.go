// Package rules loads project assignment rules from a YAML file.
//
// The file holds a single top-level key:
//
//	rules:
//	  - project_name: API
//	    keywords: [api, service]
//	  - project_name: Frontend
//	    keywords: [web, app]
//
// A missing file or a document without a "rules" sequence is a hard failure.
// Individual malformed rules are skipped with a warning so one typo does not
// block a whole run.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/inovacc/reposync/internal/model"
	"gopkg.in/yaml.v3"
)

var (
	ErrRulesNotFound = errors.New("assignment rules file not found")
	ErrInvalidRules  = errors.New("invalid assignment rules file")
)

type document struct {
	Rules yaml.Node `yaml:"rules"`
}

type rawRule struct {
	ProjectName string    `yaml:"project_name"`
	Keywords    yaml.Node `yaml:"keywords"`
}

// Loader reads rules from Path.
type Loader struct {
	Path   string
	Logger *slog.Logger
}

// NewLoader creates a loader for path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{Path: path, Logger: logger}
}

// Load reads and validates the rule file. An empty but well-formed rule list
// returns an empty, non-nil slice.
func (l *Loader) Load() ([]model.Rule, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRulesNotFound, l.Path)
		}

		return nil, fmt.Errorf("reading rules %s: %w", l.Path, err)
	}

	rules, err := Parse(data, l.logger())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}

	l.logger().Info("assignment rules loaded",
		slog.String("path", l.Path),
		slog.Int("rules", len(rules)),
	)

	return rules, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}

	return l.Logger
}

// Parse decodes a rules document.
func Parse(data []byte, logger *slog.Logger) ([]model.Rule, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	if doc.Rules.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected \"rules\" to be a list", ErrInvalidRules)
	}

	rules := make([]model.Rule, 0, len(doc.Rules.Content))

	for i, node := range doc.Rules.Content {
		rule, err := decodeRule(node)
		if err != nil {
			logger.Warn("skipping invalid assignment rule",
				slog.Int("index", i),
				slog.Int("line", node.Line),
				slog.String("error", err.Error()),
			)

			continue
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func decodeRule(node *yaml.Node) (model.Rule, error) {
	if node.Kind != yaml.MappingNode {
		return model.Rule{}, errors.New("rule is not a mapping")
	}

	var raw rawRule
	if err := node.Decode(&raw); err != nil {
		return model.Rule{}, err
	}

	if raw.ProjectName == "" {
		return model.Rule{}, errors.New("missing project_name")
	}

	keywords := []string{}

	switch raw.Keywords.Kind {
	case 0:
		// absent: a rule without keywords never matches
	case yaml.SequenceNode:
		if err := raw.Keywords.Decode(&keywords); err != nil {
			return model.Rule{}, fmt.Errorf("keywords: %w", err)
		}
	default:
		return model.Rule{}, errors.New("keywords is not a list")
	}

	return model.Rule{ProjectName: raw.ProjectName, Keywords: keywords}, nil
}
