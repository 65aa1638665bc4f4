package review

import (
	"fmt"
	"path"
	"strings"

	"code-review-backend/internal/github"
)

// Prompt is a complete review request for the reviewer backend.
type Prompt struct {
	Text     string
	Schema   string
	WithCode bool
}

const verdictSchema = `{
  "summary": "Brief overall assessment (2-3 sentences)",
  "score": 75,
  "security_issues": [
    {
      "severity": "high",
      "description": "Description of security issue",
      "location": "filename.js:line 42"
    }
  ],
  "strengths": ["Strength 1", "Strength 2"],
  "improvements": ["Improvement 1", "Improvement 2"]
}`

const outputRules = `Return ONLY one JSON object with this exact structure, with no markdown and no text before or after it:
%s

If there are no security issues, return an empty array for security_issues.
Severity levels: critical, high, medium, low`

var languageByExt = map[string]string{
	"js":     "javascript",
	"jsx":    "jsx",
	"ts":     "typescript",
	"tsx":    "tsx",
	"py":     "python",
	"java":   "java",
	"go":     "go",
	"rb":     "ruby",
	"php":    "php",
	"html":   "html",
	"css":    "css",
	"scss":   "scss",
	"vue":    "vue",
	"svelte": "svelte",
	"rs":     "rust",
	"swift":  "swift",
	"cpp":    "cpp",
	"c":      "c",
}

// LanguageFor returns the code fence tag for a file path, or "" when the
// extension is unknown.
func LanguageFor(p string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	return languageByExt[ext]
}

// BuildPrompt assembles the review request. With no files it produces the
// degraded variant that tells the reviewer the repository could not be read.
// The output depends only on its inputs.
func BuildPrompt(task TaskInfo, repoURL string, files []github.FileContent) Prompt {
	var b strings.Builder
	b.WriteString("You are a code reviewer evaluating a student's submission for a charity project.\n\n")
	writeTask(&b, task)
	fmt.Fprintf(&b, "\nRepository: %s\n\n", repoURL)

	if len(files) > 0 {
		b.WriteString("Here is the code from the student's repository:\n\n")
		b.WriteString(CodeContext(files))
		b.WriteString("\n\n")
		b.WriteString(`Please provide a thorough code review that:
1. Scores the submission (0-100) based on code quality, best practices, and task requirements
2. Identifies any security concerns (for example hardcoded credentials, SQL injection, XSS vulnerabilities)
3. Lists strengths in the implementation
4. Suggests specific improvements
`)
	} else {
		b.WriteString(`Note: Unable to fetch repository contents automatically. Please review based on the repository URL and task requirements. The student should have submitted a working repository with code that meets the project requirements.

Please provide a thorough code review that:
1. Scores the submission (0-100) based on whether a plausible repository was provided and general expectations
2. Notes any concerns about repository accessibility
3. Suggests what should be included in the repository
`)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, outputRules, verdictSchema)

	return Prompt{Text: b.String(), Schema: verdictSchema, WithCode: len(files) > 0}
}

func writeTask(b *strings.Builder, task TaskInfo) {
	stack := "Not specified"
	if len(task.TechStack) > 0 {
		stack = strings.Join(task.TechStack, ", ")
	}
	b.WriteString("Task Details:\n")
	fmt.Fprintf(b, "- Title: %s\n", task.Title)
	fmt.Fprintf(b, "- Description: %s\n", task.Description)
	fmt.Fprintf(b, "- Required Tech Stack: %s\n", stack)
	fmt.Fprintf(b, "- Difficulty: %s\n", orNotSpecified(task.Difficulty))
}

// CodeContext renders files as labeled, language-tagged code blocks.
func CodeContext(files []github.FileContent) string {
	blocks := make([]string, 0, len(files))
	for _, f := range files {
		blocks = append(blocks, fmt.Sprintf("### File: %s\n```%s\n%s\n```", f.Path, LanguageFor(f.Path), f.Text))
	}
	return strings.Join(blocks, "\n\n")
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
