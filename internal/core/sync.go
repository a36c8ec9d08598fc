package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inovacc/reposync/internal/catalog"
	"github.com/inovacc/reposync/internal/logging"
	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store"
)

// RuleLoader supplies the ordered assignment rules.
type RuleLoader interface {
	Load() ([]model.Rule, error)
}

// CatalogSource supplies the project catalog.
type CatalogSource interface {
	Import() (*catalog.Catalog, error)
}

// RepositorySource lists the repositories of an organization.
type RepositorySource interface {
	ListOrgRepositories(ctx context.Context, org string) ([]model.RemoteRepository, error)
}

// SyncOptions wires a Syncer to its collaborators.
type SyncOptions struct {
	Store   store.Store
	Rules   RuleLoader
	Catalog CatalogSource
	Source  RepositorySource

	DefaultProject            string
	DefaultProjectDescription string

	// Organization overrides the organization named by the catalog.
	Organization string

	Logger *slog.Logger
}

// SyncResult summarizes one run.
type SyncResult struct {
	RunID         string        `json:"run_id"`
	Organization  string        `json:"organization"`
	CatalogSource string        `json:"catalog_source,omitempty"`
	State         State         `json:"-"`
	StateName     string        `json:"state"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`

	RulesLoaded      int `json:"rules_loaded"`
	ProjectsImported int `json:"projects_imported"`
	ProjectsCreated  int `json:"projects_created"`
	ProjectsFailed   int `json:"projects_failed"`

	RepositoriesFetched int `json:"repositories_fetched"`
	Inserted            int `json:"inserted"`
	Updated             int `json:"updated"`
	Skipped             int `json:"skipped"`
	Dropped             int `json:"dropped"`
	Failed              int `json:"failed"`
}

// Syncer runs the synchronization pipeline.
type Syncer struct {
	opts     SyncOptions
	assigner *Assigner
	logger   *slog.Logger
	now      func() time.Time
}

// NewSyncer creates a Syncer.
func NewSyncer(opts SyncOptions) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Syncer{
		opts:     opts,
		assigner: NewAssigner(logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one pass. On abort it returns the partial result together
// with a *SyncError.
func (s *Syncer) Run(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{
		RunID:     uuid.NewString(),
		State:     StateInit,
		StartedAt: s.now(),
	}

	logger := s.logger.With(slog.String("run_id", result.RunID))

	abort := func(err error) (*SyncResult, error) {
		syncErr := &SyncError{State: result.State, Err: err}

		if errors.Is(err, ErrNoRepositories) {
			logger.Warn("sync stopped", slog.String("state", result.State.String()), slog.String("error", err.Error()))
		} else {
			logger.Error("sync aborted", slog.String("state", result.State.String()), slog.String("error", err.Error()))
		}

		s.finish(result, StateAborted)

		return result, syncErr
	}

	if s.opts.DefaultProject == "" {
		return abort(ErrDefaultProjectUnset)
	}

	logger.Info("sync started")

	// Init -> SchemaReady
	if err := s.opts.Store.EnsureSchema(ctx); err != nil {
		return abort(fmt.Errorf("ensuring schema: %w", err))
	}

	result.State = StateSchemaReady

	// SchemaReady -> RulesLoaded
	rules, err := s.opts.Rules.Load()
	if err != nil {
		return abort(fmt.Errorf("loading rules: %w", err))
	}

	if len(rules) == 0 {
		logger.Warn("no assignment rules loaded, every repository goes to the default project",
			slog.String("default_project", s.opts.DefaultProject),
		)
	}

	result.RulesLoaded = len(rules)
	result.State = StateRulesLoaded

	// RulesLoaded -> ProjectsImported
	org, err := s.importProjects(ctx, logger, result)
	if err != nil {
		return abort(err)
	}

	result.Organization = org
	result.State = StateProjectsImported

	// ProjectsImported -> DefaultProjectEnsured
	if _, created, err := s.opts.Store.UpsertProject(ctx, s.opts.DefaultProject, s.opts.DefaultProjectDescription); err != nil {
		return abort(fmt.Errorf("ensuring default project: %w", err))
	} else if created {
		logger.Info("default project created", slog.String("project", s.opts.DefaultProject))
	}

	result.State = StateDefaultProjectEnsured

	// DefaultProjectEnsured -> RepositoriesFetched
	remote, err := s.opts.Source.ListOrgRepositories(ctx, org)
	if err != nil {
		return abort(fmt.Errorf("fetching repositories of %s: %w", org, err))
	}

	if len(remote) == 0 {
		return abort(fmt.Errorf("%w: %s", ErrNoRepositories, org))
	}

	result.RepositoriesFetched = len(remote)
	result.State = StateRepositoriesFetched

	logger.Info("repositories fetched",
		slog.String("org", org),
		slog.Int("count", len(remote)),
	)

	// RepositoriesFetched -> RepositoriesReconciled
	if err := s.reconcile(ctx, logger, remote, rules, result); err != nil {
		return abort(err)
	}

	result.State = StateRepositoriesReconciled

	s.finish(result, StateDone)

	logger.Info("sync completed",
		slog.String("org", org),
		slog.Int("fetched", result.RepositoriesFetched),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("dropped", result.Dropped),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// importProjects upserts every catalog entry and returns the organization.
func (s *Syncer) importProjects(ctx context.Context, logger *slog.Logger, result *SyncResult) (string, error) {
	cat, err := s.opts.Catalog.Import()
	if err != nil {
		return "", fmt.Errorf("importing catalog: %w", err)
	}

	result.CatalogSource = cat.Source

	for _, entry := range cat.Entries {
		_, created, err := s.opts.Store.UpsertProject(ctx, entry.Name, entry.Description)
		if err != nil {
			result.ProjectsFailed++

			logger.Error("failed to import project",
				slog.String("project", entry.Name),
				slog.String("error", err.Error()),
			)

			continue
		}

		result.ProjectsImported++

		if created {
			result.ProjectsCreated++
		}
	}

	logger.Info("projects imported",
		slog.String("source", cat.Source),
		slog.String("path", cat.Path),
		slog.Int("imported", result.ProjectsImported),
		slog.Int("created", result.ProjectsCreated),
		slog.Int("failed", result.ProjectsFailed),
	)

	org := cat.Organization
	if s.opts.Organization != "" {
		if org != "" && org != s.opts.Organization {
			logger.Info("organization overridden",
				slog.String("catalog", org),
				slog.String("override", s.opts.Organization),
			)
		}

		org = s.opts.Organization
	}

	if org == "" {
		return "", ErrMissingOrganization
	}

	return org, nil
}

func (s *Syncer) reconcile(ctx context.Context, logger *slog.Logger, remote []model.RemoteRepository, rules []model.Rule, result *SyncResult) error {
	lookup := s.projectLookup(ctx, logger)

	for _, rr := range remote {
		if err := ctx.Err(); err != nil {
			return err
		}

		repo := rr.Normalize()

		if err := repo.Validate(); err != nil {
			result.Skipped++

			logger.Warn("skipping invalid repository record",
				slog.Int64("remote_id", rr.ID),
				slog.String("repository", rr.Name),
				slog.String("error", err.Error()),
			)

			continue
		}

		projectID, ok := s.assigner.Assign(repo.Name, rules, s.opts.DefaultProject, lookup)
		if !ok {
			result.Dropped++

			logger.Log(ctx, logging.LevelCritical, "repository could not be assigned to any project",
				slog.Bool("critical", true),
				slog.Int64("remote_id", repo.RemoteID),
				slog.String("repository", repo.Name),
				slog.String("default_project", s.opts.DefaultProject),
			)

			continue
		}

		repo.ProjectID = projectID

		created, err := s.opts.Store.UpsertRepository(ctx, &repo)
		if err != nil {
			result.Failed++

			logger.Error("failed to store repository",
				slog.Int64("remote_id", repo.RemoteID),
				slog.String("repository", repo.Name),
				slog.String("error", err.Error()),
			)

			continue
		}

		if created {
			result.Inserted++
		} else {
			result.Updated++
		}

		logger.Debug("repository stored",
			slog.String("repository", repo.Name),
			slog.Int64("project_id", projectID),
			slog.Bool("created", created),
		)
	}

	return nil
}

// projectLookup resolves project names through the store, remembering
// answers for the rest of the run.
func (s *Syncer) projectLookup(ctx context.Context, logger *slog.Logger) ProjectLookup {
	type entry struct {
		id int64
		ok bool
	}

	cache := make(map[string]entry)

	return func(name string) (int64, bool) {
		if e, hit := cache[name]; hit {
			return e.id, e.ok
		}

		id, ok, err := s.opts.Store.ProjectIDByName(ctx, name)
		if err != nil {
			logger.Error("project lookup failed",
				slog.String("project", name),
				slog.String("error", err.Error()),
			)

			return 0, false
		}

		cache[name] = entry{id: id, ok: ok}

		return id, ok
	}
}

func (s *Syncer) finish(result *SyncResult, state State) {
	result.State = state
	result.StateName = state.String()
	result.Duration = s.now().Sub(result.StartedAt)
}
