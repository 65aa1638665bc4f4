package review

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

type SecurityIssue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
}

// Verdict is the structured review persisted on a submission.
type Verdict struct {
	Summary        string          `json:"summary"`
	Score          int             `json:"score"`
	SecurityIssues []SecurityIssue `json:"security_issues"`
	Strengths      []string        `json:"strengths"`
	Improvements   []string        `json:"improvements"`
	// ReviewedWithoutCode marks verdicts produced from the degraded prompt.
	ReviewedWithoutCode bool `json:"reviewed_without_code,omitempty"`
}

// TaskInfo is the task metadata given to the reviewer.
type TaskInfo struct {
	Title       string
	Description string
	TechStack   []string
	Difficulty  string
}
