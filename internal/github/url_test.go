package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RepoRef
	}{
		{"plain", "https://github.com/acme/widget", RepoRef{"acme", "widget", "main"}},
		{"trailing slash", "https://github.com/acme/widget/", RepoRef{"acme", "widget", "main"}},
		{"git suffix", "https://github.com/acme/widget.git", RepoRef{"acme", "widget", "main"}},
		{"tree branch", "https://github.com/acme/widget/tree/dev", RepoRef{"acme", "widget", "dev"}},
		{"tree branch with path", "https://github.com/acme/widget/tree/release-1/src/app", RepoRef{"acme", "widget", "release-1"}},
		{"www host", "http://www.github.com/acme/widget", RepoRef{"acme", "widget", "main"}},
		{"blob path keeps default", "https://github.com/acme/widget/blob/dev/x.go", RepoRef{"acme", "widget", "main"}},
		{"tree without branch", "https://github.com/acme/widget/tree", RepoRef{"acme", "widget", "main"}},
		{"whitespace", "  https://github.com/acme/widget \n", RepoRef{"acme", "widget", "main"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepoURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"not a url",
		"github.com/acme/widget",
		"ftp://github.com/acme/widget",
		"https://gitlab.com/acme/widget",
		"https://notgithub.com/acme/widget",
		"https://github.com.evil.io/acme/widget",
		"https://github.com/acme",
		"https://github.com/",
		"https://github.com/acme/.git",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRepoURL(in)
			assert.ErrorIs(t, err, ErrInvalidRepoURL)
		})
	}
}
