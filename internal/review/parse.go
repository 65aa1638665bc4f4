package review

import (
	"encoding/json"
	"math"
	"strings"
)

// NeutralScore is used when the reviewer omits a score or breaks the output
// contract.
const NeutralScore = 70

// FallbackVerdict is what a non-JSON reviewer reply turns into.
func FallbackVerdict(raw string) Verdict {
	return Verdict{
		Summary:        raw,
		Score:          NeutralScore,
		SecurityIssues: []SecurityIssue{},
		Strengths:      []string{"Code submitted"},
		Improvements:   []string{"Review feedback format"},
	}
}

type rawVerdict struct {
	Summary        string
	Score          json.Number
	SecurityIssues []rawIssue
	Strengths      []string
	Improvements   []string
}

type rawIssue struct {
	Severity    string
	Description string
	Location    string
}

// ParseVerdict turns reviewer output into a Verdict. It never fails: when the
// text is not a JSON object the fallback verdict is returned and ok is false.
// Fields of the wrong type inside a valid object fall back to their defaults
// individually.
func ParseVerdict(raw string) (v Verdict, ok bool) {
	text := stripFences(strings.TrimSpace(raw))
	if !strings.HasPrefix(text, "{") {
		return FallbackVerdict(raw), false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return FallbackVerdict(raw), false
	}
	rv := rawVerdict{
		Summary:      stringField(fields["summary"]),
		Strengths:    stringList(fields["strengths"]),
		Improvements: stringList(fields["improvements"]),
	}
	// json.Number accepts numbers and numeric strings only
	_ = json.Unmarshal(fields["score"], &rv.Score)
	for _, item := range list(fields["security_issues"]) {
		var issue map[string]json.RawMessage
		if json.Unmarshal(item, &issue) != nil {
			continue
		}
		rv.SecurityIssues = append(rv.SecurityIssues, rawIssue{
			Severity:    stringField(issue["severity"]),
			Description: stringField(issue["description"]),
			Location:    stringField(issue["location"]),
		})
	}
	return normalize(rv), true
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func list(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	return items
}

// stringList keeps the string elements of a JSON array.
func stringList(raw json.RawMessage) []string {
	var out []string
	for _, item := range list(raw) {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// stripFences removes a leading ``` or ```json line and a trailing ``` line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalize(rv rawVerdict) Verdict {
	v := Verdict{
		Summary:        strings.TrimSpace(rv.Summary),
		Score:          NeutralScore,
		SecurityIssues: make([]SecurityIssue, 0, len(rv.SecurityIssues)),
		Strengths:      nonEmpty(rv.Strengths),
		Improvements:   nonEmpty(rv.Improvements),
	}
	if f, err := rv.Score.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		v.Score = clampScore(int(math.Round(f)))
	}
	for _, ri := range rv.SecurityIssues {
		desc := strings.TrimSpace(ri.Description)
		if desc == "" {
			continue
		}
		sev := Severity(strings.ToLower(strings.TrimSpace(ri.Severity)))
		if !sev.Valid() {
			sev = SeverityLow
		}
		v.SecurityIssues = append(v.SecurityIssues, SecurityIssue{
			Severity:    sev,
			Description: desc,
			Location:    strings.TrimSpace(ri.Location),
		})
	}
	return v
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
