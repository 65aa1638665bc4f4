package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

var ErrRepositoryUnavailable = errors.New("repository unavailable")

// MaxFileBytes is the exclusive upper bound on the size of a fetched file.
const MaxFileBytes = 50000

const (
	defaultAPIBase   = "https://api.github.com"
	defaultRawBase   = "https://raw.githubusercontent.com"
	defaultUserAgent = "submission-reviewer"
	fallbackBranch   = "master"
)

type Options struct {
	APIBase   string
	RawBase   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	// Concurrency bounds parallel raw content fetches.
	Concurrency int
}

// Client reads repository trees and raw file contents over the GitHub REST
// API and raw.githubusercontent.com. It keeps a very small surface area
// tailored to the review pipeline.
type Client struct {
	httpClient  *http.Client
	apiBase     string
	rawBase     string
	userAgent   string
	concurrency int
	log         *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	if tok := strings.TrimSpace(opts.Token); tok != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}))
		hc.Timeout = timeout
	}
	c := &Client{
		httpClient:  hc,
		apiBase:     strings.TrimRight(defaultIfEmpty(opts.APIBase, defaultAPIBase), "/"),
		rawBase:     strings.TrimRight(defaultIfEmpty(opts.RawBase, defaultRawBase), "/"),
		userAgent:   defaultIfEmpty(opts.UserAgent, defaultUserAgent),
		concurrency: opts.Concurrency,
		log:         log,
	}
	if c.concurrency <= 0 {
		c.concurrency = 4
	}
	return c
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// ---- Helpers ----

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, c.apiBase+path, "application/vnd.github+json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github api %s failed (%d): %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ---- Tree listing ----

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []FileEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// FetchTree lists every path in the repository at ref.Branch. When the
// listing for "main" fails it is retried once against "master"; the returned
// RepoRef carries the branch that actually answered.
func (c *Client) FetchTree(ctx context.Context, ref RepoRef) ([]FileEntry, RepoRef, error) {
	entries, err := c.fetchTree(ctx, ref)
	if err == nil {
		return entries, ref, nil
	}
	if ref.Branch != DefaultBranch || ctx.Err() != nil {
		return nil, ref, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, ref, err)
	}
	c.log.Info("tree listing failed on default branch, retrying on master",
		zap.String("repo", ref.Owner+"/"+ref.Repo), zap.Error(err))
	alt := ref
	alt.Branch = fallbackBranch
	entries, err = c.fetchTree(ctx, alt)
	if err != nil {
		return nil, ref, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, alt, err)
	}
	return entries, alt, nil
}

func (c *Client) fetchTree(ctx context.Context, ref RepoRef) ([]FileEntry, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1",
		url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(ref.Branch))
	var resp treeResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Truncated {
		c.log.Warn("tree listing truncated by github", zap.Stringer("ref", ref), zap.Int("entries", len(resp.Tree)))
	}
	if resp.Tree == nil {
		return []FileEntry{}, nil
	}
	return resp.Tree, nil
}

// ---- Raw contents ----

// FetchContents downloads the given files from ref.Branch. Files that cannot
// be fetched or decoded are skipped, and files of MaxFileBytes or more are
// dropped. The result keeps input order.
func (c *Client) FetchContents(ctx context.Context, ref RepoRef, entries []FileEntry) []FileContent {
	slots := make([]*FileContent, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			fc, err := c.fetchFile(gctx, ref, e.Path)
			if err != nil {
				c.log.Warn("skipping file", zap.String("path", e.Path), zap.Error(err))
				return nil
			}
			slots[i] = fc
			return nil
		})
	}
	_ = g.Wait()

	out := make([]FileContent, 0, len(entries))
	for _, fc := range slots {
		if fc != nil {
			out = append(out, *fc)
		}
	}
	return out
}

var errFileTooLarge = errors.New("file exceeds size cap")

func (c *Client) fetchFile(ctx context.Context, ref RepoRef, path string) (*FileContent, error) {
	resp, err := c.get(ctx, c.rawURL(ref, path), "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("raw fetch returned %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileBytes))
	if err != nil {
		return nil, err
	}
	if len(b) >= MaxFileBytes {
		return nil, errFileTooLarge
	}
	if !utf8.Valid(b) {
		return nil, errors.New("content is not valid utf-8")
	}
	return &FileContent{Path: path, Text: string(b), Size: len(b)}, nil
}

func (c *Client) rawURL(ref RepoRef, path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase,
		url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(ref.Branch), strings.Join(segs, "/"))
}
