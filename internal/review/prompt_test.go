package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"code-review-backend/internal/github"
)

var sampleTask = TaskInfo{
	Title:       "Donation tracker",
	Description: "Track donations per campaign",
	TechStack:   []string{"React", "Supabase"},
	Difficulty:  "intermediate",
}

func TestBuildPrompt_WithCode(t *testing.T) {
	files := []github.FileContent{
		{Path: "src/App.tsx", Text: "export const App = () => null", Size: 29},
		{Path: "Dockerfile.prod", Text: "FROM node", Size: 9},
	}
	p := BuildPrompt(sampleTask, "https://github.com/acme/widget", files)

	assert.True(t, p.WithCode)
	assert.Contains(t, p.Text, "- Title: Donation tracker")
	assert.Contains(t, p.Text, "- Required Tech Stack: React, Supabase")
	assert.Contains(t, p.Text, "- Difficulty: intermediate")
	assert.Contains(t, p.Text, "Repository: https://github.com/acme/widget")
	assert.Contains(t, p.Text, "### File: src/App.tsx\n```tsx\nexport const App = () => null\n```")
	assert.Contains(t, p.Text, "### File: Dockerfile.prod\n```\nFROM node\n```")
	assert.Contains(t, p.Text, "hardcoded credentials")
	assert.Contains(t, p.Text, "XSS")
	assert.Contains(t, p.Text, p.Schema)
	assert.NotContains(t, p.Text, "Unable to fetch repository contents")
}

func TestBuildPrompt_Degraded(t *testing.T) {
	p := BuildPrompt(TaskInfo{Title: "Landing page"}, "https://github.com/acme/widget", nil)

	assert.False(t, p.WithCode)
	assert.Contains(t, p.Text, "Unable to fetch repository contents")
	assert.Contains(t, p.Text, "- Required Tech Stack: Not specified")
	assert.Contains(t, p.Text, "- Difficulty: Not specified")
	assert.NotContains(t, p.Text, "### File:")
	assert.Contains(t, p.Text, p.Schema)
}

func TestBuildPrompt_SameSchemaBothVariants(t *testing.T) {
	rich := BuildPrompt(sampleTask, "u", []github.FileContent{{Path: "a.go", Text: "package a"}})
	degraded := BuildPrompt(sampleTask, "u", nil)
	assert.Equal(t, rich.Schema, degraded.Schema)
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	files := []github.FileContent{{Path: "a.py", Text: "print(1)"}, {Path: "b.rs", Text: "fn main(){}"}}
	a := BuildPrompt(sampleTask, "u", files)
	b := BuildPrompt(sampleTask, "u", files)
	assert.Equal(t, a, b)
}

func TestLanguageFor(t *testing.T) {
	tests := map[string]string{
		"main.go":          "go",
		"src/App.JSX":      "jsx",
		"lib/mod.rs":       "rust",
		"x/y/z.cpp":        "cpp",
		"README.md":        "",
		"Makefile":         "",
		"styles/site.scss": "scss",
	}
	for in, want := range tests {
		assert.Equal(t, want, LanguageFor(in), in)
	}
}
