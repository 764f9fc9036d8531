package types

// ReviewRole identifies one of the specialized reviewer agents.
type ReviewRole string

const (
	// RoleSecurity reviews the diff for security vulnerabilities.
	RoleSecurity ReviewRole = "security"
	// RoleScale reviews the diff for performance and scalability issues.
	RoleScale ReviewRole = "scale"
	// RoleCleanCode reviews the diff for maintainability issues.
	RoleCleanCode ReviewRole = "clean_code"
)

// ReviewFindings holds the finding list produced by a single reviewer agent.
type ReviewFindings struct {
	Role     ReviewRole `json:"role" yaml:"role"`
	Findings []string   `json:"findings" yaml:"findings"`
	// Err carries the failure message when the agent call did not resolve;
	// a failed agent contributes an empty finding list.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReviewReport is the synthesized output of a parallel review run.
type ReviewReport struct {
	Findings []ReviewFindings `json:"findings" yaml:"findings"`
	Verdict  string           `json:"verdict" yaml:"verdict"`
	Usage    TokenUsage       `json:"usage" yaml:"usage"`
}

// TotalFindings returns the number of findings across all reviewers.
func (r *ReviewReport) TotalFindings() int {
	total := 0
	for _, f := range r.Findings {
		total += len(f.Findings)
	}
	return total
}
