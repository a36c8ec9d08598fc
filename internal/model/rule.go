package model

// Rule assigns repositories whose name contains one of Keywords to the
// project named ProjectName.
type Rule struct {
	ProjectName string   `yaml:"project_name" json:"project_name"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
}

// Valid reports whether the rule can be evaluated. A nil keyword list means
// the keywords were not a proper sequence; an empty, non-nil list is valid
// and never matches.
func (r Rule) Valid() bool {
	return r.ProjectName != "" && r.Keywords != nil
}
