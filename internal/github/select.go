package github

import (
	"regexp"
	"sort"
	"strings"
)

var excludedPathParts = []string{
	"node_modules/", "dist/", "build/", ".git/", "vendor/", "__pycache__/",
	".next/", "out/", "coverage/", ".cache/", "public/assets/", "package-lock.json",
	"yarn.lock", "pnpm-lock.yaml", ".env", ".DS_Store",
}

var sourceExtensions = []string{
	".js", ".jsx", ".ts", ".tsx", ".py", ".java", ".go", ".rb", ".php",
	".html", ".css", ".scss", ".vue", ".svelte", ".rs", ".cpp", ".c", ".swift",
}

var (
	manifestPattern   = regexp.MustCompile(`(?i)readme|package\.json|tsconfig|vite\.config|next\.config`)
	sourceRootPattern = regexp.MustCompile(`^(src/|app/|pages/|components/)`)
	componentPattern  = regexp.MustCompile(`\.(jsx|tsx|vue|svelte)$`)
	scriptPattern     = regexp.MustCompile(`\.(ts|js)$`)
	readmePattern     = regexp.MustCompile(`(?i)readme`)
)

// SelectRelevant filters a tree listing down to reviewable files and orders
// them so that application sources come first. The input is not modified and
// entries of equal rank keep their relative order. techStack is accepted for
// future weighting and currently ignored.
func SelectRelevant(entries []FileEntry, techStack []string) []FileEntry {
	_ = techStack
	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if isRelevant(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pathRank(out[i].Path) < pathRank(out[j].Path)
	})
	return out
}

func isRelevant(e FileEntry) bool {
	if e.Type != EntryBlob {
		return false
	}
	for _, p := range excludedPathParts {
		if strings.Contains(e.Path, p) {
			return false
		}
	}
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(e.Path, ext) {
			return true
		}
	}
	return manifestPattern.MatchString(e.Path)
}

func pathRank(path string) int {
	switch {
	case sourceRootPattern.MatchString(path):
		return 0
	case componentPattern.MatchString(path):
		return 1
	case scriptPattern.MatchString(path):
		return 2
	case readmePattern.MatchString(path):
		return 3
	default:
		return 4
	}
}
