package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
)

type GitHubToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// FileTokenStore reads a GitHub token persisted on disk as JSON, e.g. by a
// device-flow helper. The reviewer only ever reads it.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Read returns nil with no error when the file is absent or holds no token.
func (f *FileTokenStore) Read() (*GitHubToken, error) {
	if strings.TrimSpace(f.path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var t GitHubToken
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.AccessToken) == "" {
		return nil, nil
	}
	return &t, nil
}
