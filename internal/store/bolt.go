package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inovacc/reposync/internal/model"
	"go.etcd.io/bbolt"
)

const (
	boltBucketProjects       = "projects"        // key: name -> boltProject JSON
	boltBucketProjectIDs     = "project_ids"     // key: id (uint64 BE) -> name
	boltBucketRepositories   = "repositories"    // key: remote id (uint64 BE) -> Repository JSON
	boltBucketRepositoryURLs = "repository_urls" // key: URL -> remote id (uint64 BE)
)

var boltBuckets = []string{
	boltBucketProjects,
	boltBucketProjectIDs,
	boltBucketRepositories,
	boltBucketRepositoryURLs,
}

type boltProject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Bolt stores projects and repositories in a bbolt file. The file is opened
// for each operation and closed before it returns.
type Bolt struct {
	path    string
	timeout time.Duration
}

var _ Store = (*Bolt)(nil)

// NewBolt returns a Bolt store backed by the file at path.
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return &Bolt{path: path, timeout: time.Second}, nil
}

// Path returns the database file path.
func (b *Bolt) Path() string {
	return b.path
}

// Close is a no-op; handles never outlive an operation.
func (b *Bolt) Close() error {
	return nil
}

func (b *Bolt) open(ctx context.Context, readOnly bool) (*bbolt.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if readOnly {
		if _, err := os.Stat(b.path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrSchemaNotReady, b.path)
		}
	}

	db, err := bbolt.Open(b.path, 0o600, &bbolt.Options{Timeout: b.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	return db, nil
}

func (b *Bolt) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	db, err := b.open(ctx, true)
	if err != nil {
		return err
	}

	defer func() { _ = db.Close() }()

	return db.View(func(tx *bbolt.Tx) error {
		if err := checkBuckets(tx); err != nil {
			return err
		}

		return fn(tx)
	})
}

func (b *Bolt) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	db, err := b.open(ctx, false)
	if err != nil {
		return err
	}

	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bbolt.Tx) error {
		if err := checkBuckets(tx); err != nil {
			return err
		}

		return fn(tx)
	})
}

func checkBuckets(tx *bbolt.Tx) error {
	for _, name := range boltBuckets {
		if tx.Bucket([]byte(name)) == nil {
			return fmt.Errorf("%w: bucket %s missing", ErrSchemaNotReady, name)
		}
	}

	return nil
}

// EnsureSchema creates the buckets if they do not exist.
func (b *Bolt) EnsureSchema(ctx context.Context) error {
	db, err := b.open(ctx, false)
	if err != nil {
		return err
	}

	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range boltBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		return nil
	})
}

// Ping checks that the file can be opened and carries the schema.
func (b *Bolt) Ping(ctx context.Context) error {
	return b.view(ctx, func(*bbolt.Tx) error { return nil })
}

// ============================================================================
// Project Operations
// ============================================================================

func (b *Bolt) UpsertProject(ctx context.Context, name, description string) (int64, bool, error) {
	if name == "" {
		return 0, false, ErrEmptyProjectName
	}

	var (
		id      int64
		created bool
	)

	err := b.update(ctx, func(tx *bbolt.Tx) error {
		projects := tx.Bucket([]byte(boltBucketProjects))

		if data := projects.Get([]byte(name)); data != nil {
			var p boltProject
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decoding project: %w", err)
			}

			id = p.ID

			return nil
		}

		seq, err := projects.NextSequence()
		if err != nil {
			return err
		}

		p := boltProject{ID: int64(seq), Name: name, Description: description}

		data, err := json.Marshal(p)
		if err != nil {
			return err
		}

		if err := projects.Put([]byte(name), data); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(boltBucketProjectIDs)).Put(itob(p.ID), []byte(name)); err != nil {
			return err
		}

		id = p.ID
		created = true

		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("upserting project %q: %w", name, err)
	}

	return id, created, nil
}

func (b *Bolt) ProjectIDByName(ctx context.Context, name string) (int64, bool, error) {
	var (
		id    int64
		found bool
	)

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketProjects)).Get([]byte(name))
		if data == nil {
			return nil
		}

		var p boltProject
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decoding project: %w", err)
		}

		id, found = p.ID, true

		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("looking up project %q: %w", name, err)
	}

	return id, found, nil
}

func (b *Bolt) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	var projects []model.ProjectSummary

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		counts := make(map[int64]int)

		if err := tx.Bucket([]byte(boltBucketRepositories)).ForEach(func(_, v []byte) error {
			var r model.Repository
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decoding repository: %w", err)
			}

			counts[r.ProjectID]++

			return nil
		}); err != nil {
			return err
		}

		return tx.Bucket([]byte(boltBucketProjects)).ForEach(func(_, v []byte) error {
			var p boltProject
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decoding project: %w", err)
			}

			projects = append(projects, model.ProjectSummary{
				Project: model.Project{
					ID:          p.ID,
					Name:        p.Name,
					Description: p.Description,
				},
				RepositoryCount: counts[p.ID],
			})

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// ============================================================================
// Repository Operations
// ============================================================================

func (b *Bolt) UpsertRepository(ctx context.Context, repo *model.Repository) (bool, error) {
	if err := repo.Validate(); err != nil {
		return false, err
	}

	var created bool

	err := b.update(ctx, func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(boltBucketProjectIDs)).Get(itob(repo.ProjectID)) == nil {
			return fmt.Errorf("%w: id %d", ErrProjectNotFound, repo.ProjectID)
		}

		repos := tx.Bucket([]byte(boltBucketRepositories))
		urls := tx.Bucket([]byte(boltBucketRepositoryURLs))
		key := itob(repo.RemoteID)

		if owner := urls.Get([]byte(repo.URL)); owner != nil && !bytes.Equal(owner, key) {
			return fmt.Errorf("%w: %s is stored for remote id %d", ErrURLConflict, repo.URL, btoi(owner))
		}

		existing := repos.Get(key)
		created = existing == nil

		if !created {
			var old model.Repository
			if err := json.Unmarshal(existing, &old); err != nil {
				return fmt.Errorf("decoding repository: %w", err)
			}

			if old.URL != repo.URL {
				if err := urls.Delete([]byte(old.URL)); err != nil {
					return err
				}
			}
		}

		stored := *repo
		stored.CreatedAt = repo.CreatedAt.UTC()
		stored.UpdatedAt = repo.UpdatedAt.UTC()

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}

		if err := repos.Put(key, data); err != nil {
			return err
		}

		return urls.Put([]byte(repo.URL), key)
	})
	if err != nil {
		return false, fmt.Errorf("upserting repository %q (remote id %d): %w", repo.Name, repo.RemoteID, err)
	}

	return created, nil
}

func (b *Bolt) GetRepository(ctx context.Context, remoteID int64) (*model.Repository, error) {
	var repo *model.Repository

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketRepositories)).Get(itob(remoteID))
		if data == nil {
			return nil
		}

		var r model.Repository
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decoding repository: %w", err)
		}

		repo = &r

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting repository %d: %w", remoteID, err)
	}

	return repo, nil
}

func (b *Bolt) ListRepositories(ctx context.Context, projectName string) ([]model.Repository, error) {
	var repos []model.Repository

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		var (
			projectID int64
			filter    = projectName != ""
		)

		if filter {
			data := tx.Bucket([]byte(boltBucketProjects)).Get([]byte(projectName))
			if data == nil {
				return nil
			}

			var p boltProject
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decoding project: %w", err)
			}

			projectID = p.ID
		}

		return tx.Bucket([]byte(boltBucketRepositories)).ForEach(func(_, v []byte) error {
			var r model.Repository
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decoding repository: %w", err)
			}

			if !filter || r.ProjectID == projectID {
				repos = append(repos, r)
			}

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	sort.SliceStable(repos, func(i, j int) bool {
		if repos[i].Name != repos[j].Name {
			return repos[i].Name < repos[j].Name
		}

		return repos[i].RemoteID < repos[j].RemoteID
	})

	return repos, nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))

	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
