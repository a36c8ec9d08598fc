// Package store provides the storage gateway for reposync.
//
// The package defines the [Store] interface, split into a project resource
// ([ProjectStore]) and a repository resource ([RepositoryStore]). Two
// backends implement it:
//   - SQLite (package store/sqlite), the default, using modernc.org/sqlite
//   - BoltDB ([Bolt]), an embedded key-value store
//
// Package store/backend picks one by its configured name and
// store/storetest holds the behavior both must share.
//
// # Upsert semantics
//
// Projects are keyed by name and inserted only if absent. Repositories are
// keyed by their remote id and fully overwritten on every observation. A
// repository URL must be unique: reusing it under another remote id fails
// with [ErrURLConflict].
//
// # Scoped connections
//
// Every operation acquires its own connection and releases it before
// returning, on success and on error. Nothing holds a connection between
// calls.
package store
