package model

import (
	"errors"
	"testing"
	"time"
)

func TestVisibilityFromPrivate(t *testing.T) {
	if got := VisibilityFromPrivate(true); got != VisibilityPrivate {
		t.Errorf("VisibilityFromPrivate(true) = %q, want %q", got, VisibilityPrivate)
	}

	if got := VisibilityFromPrivate(false); got != VisibilityPublic {
		t.Errorf("VisibilityFromPrivate(false) = %q, want %q", got, VisibilityPublic)
	}
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		input   string
		want    Visibility
		wantErr bool
	}{
		{"public", VisibilityPublic, false},
		{"private", VisibilityPrivate, false},
		{"internal", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVisibility(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVisibility(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseVisibility(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func validRepository() Repository {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	return Repository{
		RemoteID:   42,
		Name:       "user-api",
		Visibility: VisibilityPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
		Stars:      3,
		Forks:      1,
		URL:        "https://github.com/acme/user-api",
	}
}

func TestRepository_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Repository)
		want   error
	}{
		{"valid", func(r *Repository) {}, nil},
		{"missing remote id", func(r *Repository) { r.RemoteID = 0 }, ErrMissingRemoteID},
		{"missing name", func(r *Repository) { r.Name = "" }, ErrMissingName},
		{"missing url", func(r *Repository) { r.URL = "" }, ErrMissingURL},
		{"negative stars", func(r *Repository) { r.Stars = -1 }, ErrNegativeCount},
		{"negative forks", func(r *Repository) { r.Forks = -1 }, ErrNegativeCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := validRepository()
			tt.mutate(&repo)

			err := repo.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRepository_ValidateVisibility(t *testing.T) {
	repo := validRepository()
	repo.Visibility = "internal"

	if err := repo.Validate(); err == nil {
		t.Error("Validate() should reject unknown visibility")
	}
}

func TestRemoteRepository_Normalize(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	created := time.Date(2023, 1, 2, 9, 0, 0, 0, loc)

	remote := RemoteRepository{
		ID:              7,
		Name:            "frontend-app",
		Private:         true,
		CreatedAt:       created,
		UpdatedAt:       created.Add(time.Hour),
		StargazersCount: 10,
		ForksCount:      2,
		HTMLURL:         "https://github.com/acme/frontend-app",
	}

	repo := remote.Normalize()

	if repo.RemoteID != 7 || repo.Name != "frontend-app" {
		t.Errorf("Normalize() identity = (%d, %q)", repo.RemoteID, repo.Name)
	}

	if repo.Visibility != VisibilityPrivate {
		t.Errorf("Visibility = %q, want %q", repo.Visibility, VisibilityPrivate)
	}

	if repo.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", repo.CreatedAt.Location())
	}

	if !repo.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", repo.CreatedAt, created)
	}

	if repo.Stars != 10 || repo.Forks != 2 {
		t.Errorf("counts = (%d, %d), want (10, 2)", repo.Stars, repo.Forks)
	}

	if repo.ProjectID != 0 {
		t.Errorf("ProjectID = %d, want 0 before assignment", repo.ProjectID)
	}
}

func TestRule_Valid(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"complete", Rule{ProjectName: "API", Keywords: []string{"api"}}, true},
		{"empty keywords", Rule{ProjectName: "API", Keywords: []string{}}, true},
		{"nil keywords", Rule{ProjectName: "API"}, false},
		{"missing project", Rule{Keywords: []string{"api"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
