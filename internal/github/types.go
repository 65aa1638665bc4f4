package github

// RepoRef identifies a repository at a branch.
type RepoRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo + "@" + r.Branch
}

const (
	EntryBlob = "blob"
	EntryTree = "tree"
)

// FileEntry is one item of a recursive tree listing.
type FileEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob | tree
	URL  string `json:"url,omitempty"`
}

// FileContent is the raw text of a fetched file. Size is always below MaxFileBytes.
type FileContent struct {
	Path string `json:"path"`
	Text string `json:"text"`
	Size int    `json:"size"`
}
