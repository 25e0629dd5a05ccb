// Package github provides client and data types for the GitHub REST API.
//
// This package handles all read interactions with GitHub needed by the
// importer: paging through repository collections (labels, milestones,
// pulls, issues, comments, releases) and decoding raw items into typed
// representations. It never writes to GitHub.
package github

import (
	"crypto/sha1"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RetryDelay is the base delay between rate-limit retries
	// (exponential backoff).
	RetryDelay = time.Second

	// MaxRetryElapsed bounds the total time spent retrying a single
	// rate-limited request before giving up.
	MaxRetryElapsed = 2 * time.Minute

	// MaxPageSize is the number of items requested per page.
	MaxPageSize = 100
)

// Client provides read access to the GitHub REST API for one repository.
type Client struct {
	Token      string       // GitHub personal access token
	Owner      string       // Repository owner (user or org)
	Repo       string       // Repository name
	BaseURL    string       // API base URL (default: https://api.github.com)
	HTTPClient *http.Client // Optional custom HTTP client
}

// User represents a GitHub user reference on an issue, pull request or
// comment.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email,omitempty"`
}

// Label represents a GitHub label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	URL   string `json:"url,omitempty"`
}

// Milestone represents a GitHub milestone. Number is repository-scoped
// and becomes the local milestone iid.
type Milestone struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	State       string     `json:"state"` // "open" or "closed"
	DueOn       *time.Time `json:"due_on,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	HTMLURL     string     `json:"html_url,omitempty"`
}

// LocalState maps the GitHub milestone state onto the local one.
func (m *Milestone) LocalState() string {
	if m.State == "closed" {
		return "closed"
	}
	return "active"
}

// BranchRef is one side of a pull request (head or base).
// Repo is nil when the backing repository has been deleted, which
// happens routinely for merged fork branches.
type BranchRef struct {
	Ref  string      `json:"ref"`
	SHA  string      `json:"sha"`
	Repo *Repository `json:"repo,omitempty"`
}

// Repository represents a GitHub repository reference.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// PullRequest represents a pull request from the GitHub API.
type PullRequest struct {
	Number    int        `json:"number"` // Repository-scoped, becomes the local iid
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"` // "open" or "closed"
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	Head      BranchRef  `json:"head"`
	Base      BranchRef  `json:"base"`
	User      *User      `json:"user,omitempty"` // Author
	Assignee  *User      `json:"assignee,omitempty"`
	Milestone *Milestone `json:"milestone,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	HTMLURL   string     `json:"html_url,omitempty"`
}

// Valid reports whether the pull request carries enough structure to be
// imported: both sides must name a branch and a commit. Items failing
// this check are skipped silently, not recorded as errors.
func (p *PullRequest) Valid() bool {
	return p.Head.Ref != "" && p.Head.SHA != "" &&
		p.Base.Ref != "" && p.Base.SHA != ""
}

// Open reports whether the pull request is still open on GitHub.
func (p *PullRequest) Open() bool {
	return p.State == "open"
}

// LocalState maps GitHub state plus merged_at onto the local merge
// request state.
func (p *PullRequest) LocalState() string {
	switch {
	case p.MergedAt != nil:
		return "merged"
	case p.State == "closed":
		return "closed"
	default:
		return "opened"
	}
}

// Issue represents an issue from the GitHub API. GitHub returns pull
// requests on the issues endpoint too; PullRequest is non-nil for those.
type Issue struct {
	Number      int        `json:"number"` // Repository-scoped, becomes the local iid
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"` // "open" or "closed"
	Labels      []Label    `json:"labels,omitempty"`
	User        *User      `json:"user,omitempty"` // Author
	Assignee    *User      `json:"assignee,omitempty"`
	Milestone   *Milestone `json:"milestone,omitempty"`
	Comments    int        `json:"comments"`
	PullRequest *PullRef   `json:"pull_request,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	HTMLURL     string     `json:"html_url,omitempty"`
}

// PullRef marks an issue as actually being a pull request.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// IsPullRequest reports whether this issue is a pull request in disguise.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// HasLabels reports whether the issue carries any labels.
func (i *Issue) HasLabels() bool {
	return len(i.Labels) > 0
}

// HasComments reports whether GitHub counts any comments on the issue.
func (i *Issue) HasComments() bool {
	return i.Comments > 0
}

// LocalState maps the GitHub issue state onto the local one.
func (i *Issue) LocalState() string {
	if i.State == "closed" {
		return "closed"
	}
	return "opened"
}

// Comment represents an issue comment or pull request review comment.
// Path and Position are set only for review (inline diff) comments.
type Comment struct {
	ID        int64      `json:"id"`
	Body      string     `json:"body"`
	User      *User      `json:"user,omitempty"` // Author
	CommitID  string     `json:"commit_id,omitempty"`
	Path      string     `json:"path,omitempty"`
	Position  *int       `json:"position,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	HTMLURL   string     `json:"html_url,omitempty"`
}

// LineCode returns the local diff line code for a review comment, or ""
// for a plain comment. The format is sha1(path)_oldLine_newLine with the
// GitHub diff position taken as the new line.
func (c *Comment) LineCode() string {
	if c.Path == "" || c.Position == nil {
		return ""
	}
	return fmt.Sprintf("%x_0_%s", sha1.Sum([]byte(c.Path)), strconv.Itoa(*c.Position))
}

// NoteKind returns the note subtype discriminator persisted with the
// comment: "DiffNote" for inline diff comments, "" for plain ones.
func (c *Comment) NoteKind() string {
	if c.LineCode() != "" {
		return "DiffNote"
	}
	return ""
}

// Release represents a release from the GitHub API.
type Release struct {
	TagName   string     `json:"tag_name"`
	Name      string     `json:"name,omitempty"`
	Body      string     `json:"body,omitempty"`
	Draft     bool       `json:"draft"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"published_at,omitempty"`
	HTMLURL   string     `json:"html_url,omitempty"`
}

// Valid reports whether the release can be imported. Drafts have no tag
// to key on and are skipped.
func (r *Release) Valid() bool {
	return r.TagName != "" && !r.Draft
}
