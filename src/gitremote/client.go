// Package gitremote is a stateless client for the hosted repository service.
// Every operation requires an explicit bearer credential; nothing is read
// from ambient process state.
package gitremote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/taskweave/go-assistant/src/fault"
)

const (
	defaultBaseURL = "https://api.github.com"

	// DefaultCommitLimit bounds history listings when the caller passes no limit.
	DefaultCommitLimit = 20
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for non-critical warnings.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to a GitHub-compatible contents API. It holds no credential;
// the bearer token is threaded through every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a gateway client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEntries lists a directory. When path addresses a file the backing API
// answers with a bare object instead of an array; that response is normalized
// to a single-element slice here. Directories sort before files, then
// lexicographically by name.
func (c *Client) ListEntries(ctx context.Context, token, owner, repo, path, branch string) ([]Entry, error) {
	body, err := c.get(ctx, token, contentsURL(owner, repo, path, branch))
	if err != nil {
		return nil, err
	}

	items, err := decodeContents(body)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			Name:   item.Name,
			Path:   item.Path,
			Digest: item.SHA,
			Size:   item.Size,
			Kind:   entryKind(item.Type),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind == KindDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// ReadFile fetches one file and decodes its transport-encoded content as
// UTF-8 text. Binary content is a reportable failure, not silent corruption.
func (c *Client) ReadFile(ctx context.Context, token, owner, repo, path, branch string) (*FileContent, error) {
	body, err := c.get(ctx, token, contentsURL(owner, repo, path, branch))
	if err != nil {
		return nil, err
	}

	var item contentItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fault.InvalidArguments("%s addresses a directory, not a file", path)
	}
	if item.Type != "" && item.Type != "file" {
		return nil, fault.InvalidArguments("%s is a %s, not a file", path, item.Type)
	}

	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(item.Content))
	if err != nil {
		return nil, fault.Wrap(fault.KindDecodeFailure, err, "undecodable content at %s", path)
	}
	if !utf8.Valid(raw) {
		return nil, fault.DecodeFailure("%s is not valid UTF-8 text", path)
	}
	return &FileContent{Content: string(raw), Digest: item.SHA}, nil
}

// WriteFile commits new content under compare-and-swap. expectedDigest must
// be empty for a create and must match the store's current digest for an
// update; a mismatch fails with Conflict and applies nothing. The returned
// digest authorizes the next write.
func (c *Client) WriteFile(ctx context.Context, token, owner, repo, path, content, message, expectedDigest, branch string) (string, error) {
	if branch == "" {
		branch = "main"
	}
	payload := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		Branch:  branch,
		SHA:     expectedDigest,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode commit request: %w", err)
	}

	body, err := c.do(ctx, token, http.MethodPut, contentsURL(owner, repo, path, ""), raw)
	if err != nil {
		return "", err
	}

	var result writeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode commit response: %w", err)
	}
	if result.Content.SHA == "" {
		return "", fmt.Errorf("commit response carries no content digest")
	}
	return result.Content.SHA, nil
}

// ListBranches lists branch names. Branch listing is informational, so any
// failure degrades to a single-element fallback instead of failing the caller.
func (c *Client) ListBranches(ctx context.Context, token, owner, repo string) []string {
	body, err := c.get(ctx, token, fmt.Sprintf("/repos/%s/%s/branches", owner, repo))
	if err != nil {
		c.logger.Warn("branch listing failed, falling back", "owner", owner, "repo", repo, "error", err)
		return []string{"main"}
	}
	var items []branchItem
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		c.logger.Warn("branch listing undecodable, falling back", "owner", owner, "repo", repo)
		return []string{"main"}
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

// ListCommits returns recent commit summaries for a branch, newest first.
func (c *Client) ListCommits(ctx context.Context, token, owner, repo, branch string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = DefaultCommitLimit
	}
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, repo, limit)
	if branch != "" {
		path += "&sha=" + url.QueryEscape(branch)
	}
	body, err := c.get(ctx, token, path)
	if err != nil {
		return nil, err
	}

	var items []commitItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode commit listing: %w", err)
	}
	commits := make([]Commit, 0, len(items))
	for _, item := range items {
		commits = append(commits, Commit{
			Digest:     item.SHA,
			Message:    item.Commit.Message,
			AuthorName: item.Commit.Author.Name,
			AuthorDate: item.Commit.Author.Date,
			Permalink:  item.HTMLURL,
		})
	}
	return commits, nil
}

func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	return c.do(ctx, token, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, body []byte) ([]byte, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fault.AuthMissing("no repository credential for the current user")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindUnavailable, err, "repository service unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}
	return nil, statusFault(resp.StatusCode, method, path)
}

func statusFault(status int, method, path string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fault.AuthMissing("repository service rejected the credential (%d)", status)
	case http.StatusNotFound:
		return fault.NotFound("%s not found", path)
	case http.StatusConflict:
		return fault.Conflict("digest mismatch on %s", path)
	case http.StatusTooManyRequests:
		return fault.RateLimited("repository service rate limited %s %s", method, path)
	default:
		return fault.New(fault.KindUnavailable, "repository service returned %d for %s %s", status, method, path)
	}
}

// decodeContents normalizes the API's heterogeneous contents response: an
// array for directories, a bare object for files.
func decodeContents(body []byte) ([]contentItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []contentItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode directory listing: %w", err)
		}
		return items, nil
	}
	var item contentItem
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("decode file entry: %w", err)
	}
	return []contentItem{item}, nil
}

func contentsURL(owner, repo, path, branch string) string {
	u := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	if branch != "" {
		u += "?ref=" + url.QueryEscape(branch)
	}
	return u
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func entryKind(apiType string) EntryKind {
	if apiType == "dir" {
		return KindDir
	}
	return KindFile
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
}
