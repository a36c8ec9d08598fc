package core

// State is a step of the synchronization state machine.
type State int

const (
	StateInit State = iota
	StateSchemaReady
	StateRulesLoaded
	StateProjectsImported
	StateDefaultProjectEnsured
	StateRepositoriesFetched
	StateRepositoriesReconciled
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSchemaReady:
		return "schema_ready"
	case StateRulesLoaded:
		return "rules_loaded"
	case StateProjectsImported:
		return "projects_imported"
	case StateDefaultProjectEnsured:
		return "default_project_ensured"
	case StateRepositoriesFetched:
		return "repositories_fetched"
	case StateRepositoriesReconciled:
		return "repositories_reconciled"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}

	return "unknown"
}
