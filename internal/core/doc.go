// Package core provides the business logic layer for reposync.
//
// This package contains the synchronization pipeline separated from UI
// concerns. Functions here return errors instead of printing to
// stdout/stderr; the cmd package decides how to present them.
//
// # Assignment
//
// [Assigner] maps a repository name to a project id using ordered keyword
// rules. Matching is a case-insensitive substring test, so the keyword "go"
// also matches "django". The first rule whose matched project exists wins;
// a rule whose project is unknown is abandoned and the next rule is tried.
// When nothing resolves, the default project is used.
//
// # Synchronization
//
// [Syncer] runs one pass as a linear state machine:
//
//  1. SchemaReady - storage schema created if absent
//  2. RulesLoaded - assignment rules read
//  3. ProjectsImported - catalog projects upserted, organization learned
//  4. DefaultProjectEnsured - fallback project inserted if absent
//  5. RepositoriesFetched - organization repositories listed
//  6. RepositoriesReconciled - each repository assigned and upserted
//
// Any failure before reconciliation aborts the run with a [SyncError]
// naming the state reached. During reconciliation, problems with a single
// repository are logged and counted without stopping the batch.
package core
