package gitremote

import "time"

// EntryKind distinguishes files from directories in a listing.
type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// Entry is one item of a directory listing. Digest is the opaque version
// token for the entry's current content; it changes on every write.
type Entry struct {
	Name   string
	Path   string
	Digest string
	Size   int64
	Kind   EntryKind
}

// FileContent is a decoded file plus the digest that authorizes the next
// compare-and-swap write.
type FileContent struct {
	Content string
	Digest  string
}

// Commit is one entry of a branch's history.
type Commit struct {
	Digest     string
	Message    string
	AuthorName string
	AuthorDate time.Time
	Permalink  string
}

// Wire shapes of the backing contents API.

type contentItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type writeResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type branchItem struct {
	Name string `json:"name"`
}

type commitItem struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}
