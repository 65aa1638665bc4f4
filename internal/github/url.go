package github

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidRepoURL = errors.New("invalid repository url")

const DefaultBranch = "main"

// ParseRepoURL extracts owner, repo and branch from a GitHub URL such as
// https://github.com/owner/repo or https://github.com/owner/repo/tree/dev/src.
func ParseRepoURL(raw string) (RepoRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return RepoRef{}, fmt.Errorf("%w: %v", ErrInvalidRepoURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return RepoRef{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRepoURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return RepoRef{}, fmt.Errorf("%w: host %q is not github.com", ErrInvalidRepoURL, u.Hostname())
	}

	parts := make([]string, 0, 5)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepoRef{}, fmt.Errorf("%w: expected /owner/repo in %q", ErrInvalidRepoURL, u.Path)
	}
	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return RepoRef{}, fmt.Errorf("%w: empty repository name", ErrInvalidRepoURL)
	}

	branch := DefaultBranch
	if len(parts) > 3 && parts[2] == "tree" {
		branch = parts[3]
	}
	return RepoRef{Owner: owner, Repo: repo, Branch: branch}, nil
}
