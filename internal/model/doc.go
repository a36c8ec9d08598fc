// Package model defines the data structures used throughout reposync.
//
// These records are the fixed-shape form of everything that crosses an
// ingestion boundary: rules read from YAML, catalog rows read from CSV or
// JSON and repositories returned by the GitHub API. Storage backends and the
// sync pipeline only ever see these types.
//
// # Project
//
// A [Project] is a local bucket repositories are assigned to:
//
//	type Project struct {
//	    ID          int64  // Assigned by storage on first insert
//	    Name        string // Unique, non-empty
//	    Description string // Optional
//	}
//
// # Repository
//
// A [Repository] is the latest observed state of a remote repository, keyed
// by its stable remote identifier:
//
//	type Repository struct {
//	    RemoteID   int64
//	    Name       string
//	    Visibility Visibility
//	    CreatedAt  time.Time
//	    UpdatedAt  time.Time
//	    Stars      int
//	    Forks      int
//	    URL        string
//	    ProjectID  int64
//	}
//
// # Rule
//
// A [Rule] maps keywords found in a repository name to a project name. Rules
// are evaluated in order and the first rule whose project resolves wins.
package model
