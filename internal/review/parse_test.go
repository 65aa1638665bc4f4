package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{
  "summary": "Solid work.",
  "score": 82,
  "security_issues": [
    {"severity": "HIGH", "description": "API key committed", "location": "src/api.js:3"},
    {"severity": "urgent", "description": "Unescaped HTML"},
    {"severity": "low", "description": "  "}
  ],
  "strengths": ["Clear components", ""],
  "improvements": ["Add tests"]
}`

func TestParseVerdict_Valid(t *testing.T) {
	v, ok := ParseVerdict(validReply)
	assert.True(t, ok)
	assert.Equal(t, "Solid work.", v.Summary)
	assert.Equal(t, 82, v.Score)
	assert.Equal(t, []SecurityIssue{
		{Severity: SeverityHigh, Description: "API key committed", Location: "src/api.js:3"},
		{Severity: SeverityLow, Description: "Unescaped HTML"},
	}, v.SecurityIssues)
	assert.Equal(t, []string{"Clear components"}, v.Strengths)
	assert.Equal(t, []string{"Add tests"}, v.Improvements)
}

func TestParseVerdict_Fenced(t *testing.T) {
	for name, in := range map[string]string{
		"json tag": "```json\n{\"summary\":\"ok\",\"score\":90}\n```",
		"no tag":   "```\n{\"summary\":\"ok\",\"score\":90}\n```",
		"padded":   "\n\n  ```json\n{\"summary\":\"ok\",\"score\":90}\n```  \n",
	} {
		t.Run(name, func(t *testing.T) {
			v, ok := ParseVerdict(in)
			assert.True(t, ok)
			assert.Equal(t, "ok", v.Summary)
			assert.Equal(t, 90, v.Score)
		})
	}
}

func TestParseVerdict_Defaults(t *testing.T) {
	v, ok := ParseVerdict(`{"summary":"thin"}`)
	assert.True(t, ok)
	assert.Equal(t, NeutralScore, v.Score)
	assert.NotNil(t, v.SecurityIssues)
	assert.Empty(t, v.SecurityIssues)
	assert.NotNil(t, v.Strengths)
	assert.NotNil(t, v.Improvements)

	v, _ = ParseVerdict(`{"score":null,"strengths":null}`)
	assert.Equal(t, NeutralScore, v.Score)
	assert.NotNil(t, v.Strengths)
}

func TestParseVerdict_ScoreNormalization(t *testing.T) {
	tests := map[string]int{
		`{"score": 150}`:  100,
		`{"score": -3}`:   0,
		`{"score": 77.6}`: 78,
		`{"score": "64"}`: 64,
		`{"score": 0}`:    0,
	}
	for in, want := range tests {
		v, ok := ParseVerdict(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, v.Score, in)
	}
}

func TestParseVerdict_WrongFieldTypesKeepVerdict(t *testing.T) {
	v, ok := ParseVerdict(`{"summary":"Good","score":82,"security_issues":"none","strengths":"clean code","improvements":["tests", 3, null]}`)
	require.True(t, ok)
	assert.Equal(t, "Good", v.Summary)
	assert.Equal(t, 82, v.Score)
	assert.Empty(t, v.SecurityIssues)
	assert.NotNil(t, v.SecurityIssues)
	assert.Empty(t, v.Strengths)
	assert.NotNil(t, v.Strengths)
	assert.Equal(t, []string{"tests"}, v.Improvements)

	v, ok = ParseVerdict(`{"summary":42,"score":true,"security_issues":["oops",{"severity":5,"description":"XSS in form"}]}`)
	require.True(t, ok)
	assert.Empty(t, v.Summary)
	assert.Equal(t, NeutralScore, v.Score)
	assert.Equal(t, []SecurityIssue{{Severity: SeverityLow, Description: "XSS in form"}}, v.SecurityIssues)
}

func TestParseVerdict_Fallback(t *testing.T) {
	for _, in := range []string{
		"The code looks fine overall, nice job!",
		"",
		"[1, 2, 3]",
		`{"summary": "unterminated`,
		`{"score": 80} trailing prose`,
		"Here you go: {\"score\": 80}",
	} {
		v, ok := ParseVerdict(in)
		assert.False(t, ok, in)
		assert.Equal(t, Verdict{
			Summary:        in,
			Score:          70,
			SecurityIssues: []SecurityIssue{},
			Strengths:      []string{"Code submitted"},
			Improvements:   []string{"Review feedback format"},
		}, v, in)
	}
}
