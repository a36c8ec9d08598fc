package model

// Project is a local grouping bucket for repositories.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectSummary is a project together with the number of repositories
// currently assigned to it.
type ProjectSummary struct {
	Project
	RepositoryCount int `json:"repository_count"`
}

// CatalogEntry is one row of the project catalog.
type CatalogEntry struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Organization string `json:"organization"`
}
