package core

import (
	"log/slog"
	"strings"

	"github.com/inovacc/reposync/internal/model"
)

// ProjectLookup resolves a project name to its stored id.
type ProjectLookup func(name string) (int64, bool)

// Assigner picks the project for a repository.
type Assigner struct {
	Logger *slog.Logger
}

// NewAssigner creates an Assigner that reports skipped rules to logger.
func NewAssigner(logger *slog.Logger) *Assigner {
	return &Assigner{Logger: logger}
}

// Assign returns the id of the project repoName belongs to. Rules are tried
// in order and keywords within a rule in order; the first keyword contained
// in repoName (case-insensitive) selects the rule's project. If that project
// cannot be resolved the rest of the rule is skipped and matching continues
// with the next rule. With no resolvable match the default project is
// returned, which may itself be unresolved.
func (a *Assigner) Assign(repoName string, rules []model.Rule, defaultProject string, lookup ProjectLookup) (int64, bool) {
	logger := a.logger()

	if len(rules) == 0 {
		logger.Warn("no assignment rules, using default project",
			slog.String("repository", repoName),
			slog.String("project", defaultProject),
		)

		return lookup(defaultProject)
	}

	name := strings.ToLower(repoName)

	for i, rule := range rules {
		if !rule.Valid() {
			logger.Warn("skipping malformed assignment rule",
				slog.Int("rule", i),
				slog.String("project", rule.ProjectName),
			)

			continue
		}

		for _, keyword := range rule.Keywords {
			if !strings.Contains(name, strings.ToLower(keyword)) {
				continue
			}

			if id, ok := lookup(rule.ProjectName); ok {
				return id, true
			}

			logger.Warn("matched project does not exist, trying next rule",
				slog.String("repository", repoName),
				slog.String("keyword", keyword),
				slog.String("project", rule.ProjectName),
			)

			break
		}
	}

	return lookup(defaultProject)
}

func (a *Assigner) logger() *slog.Logger {
	if a == nil || a.Logger == nil {
		return slog.Default()
	}

	return a.Logger
}
