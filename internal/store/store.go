// Package store provides shared types for the project record store.
//
// The concrete implementation lives in the sqlite sub-package. This
// package holds the interface and value types referenced by both the
// sqlite implementation and its consumers (importer, cmd/hublift).
//
// All Create* methods are the bulk-import write path: they perform
// schema-level constraint checks only and fire none of the side effects
// an interactive creation would (no notifications, no touching of the
// parent's updated_at). The importer is the single writer of historical
// data and relies on that.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Project is the local owner of all imported records.
type Project struct {
	ID        int64
	Namespace string
	Name      string
	CreatorID int64 // Fallback owner for unresolved remote identities
}

// PathWithNamespace returns "namespace/name".
func (p *Project) PathWithNamespace() string {
	return p.Namespace + "/" + p.Name
}

// User is a local account.
type User struct {
	ID       int64
	Username string
	Name     string
	Email    string // Primary email; secondary emails live in user_emails
}

// Label is a project label. At most one label per (project, title).
type Label struct {
	ID        int64
	ProjectID int64
	Title     string
	Color     string
}

// Milestone is a project milestone. At most one per (project, iid).
type Milestone struct {
	ID          int64
	ProjectID   int64
	IID         int
	Title       string
	Description string
	State       string // "active" or "closed"
	DueDate     *time.Time
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// MergeRequest is an imported pull request, keyed by (source project, iid).
type MergeRequest struct {
	ID              int64
	IID             int
	SourceProjectID int64
	TargetProjectID int64
	Title           string
	Description     string
	SourceBranch    string
	SourceBranchSHA string
	TargetBranch    string
	TargetBranchSHA string
	State           string // "opened", "closed" or "merged"
	MilestoneID     *int64
	AuthorID        int64
	AssigneeID      *int64
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// Issue is an imported issue, keyed by (project, iid).
type Issue struct {
	ID          int64
	IID         int
	ProjectID   int64
	Title       string
	Description string
	State       string // "opened" or "closed"
	MilestoneID *int64
	AuthorID    int64
	AssigneeID  *int64
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Noteable type discriminators for Note.
const (
	NoteableMergeRequest = "MergeRequest"
	NoteableIssue        = "Issue"
)

// Note is a comment attached to a merge request or issue. CommitID and
// LineCode are set for inline diff comments only; Kind discriminates the
// comment subtype ("DiffNote" or "").
type Note struct {
	ID           int64
	ProjectID    int64
	NoteableType string
	NoteableID   int64
	Body         string
	CommitID     string
	LineCode     string
	Kind         string
	AuthorID     int64
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

// Release is an imported release, keyed by (project, tag).
type Release struct {
	ID          int64
	ProjectID   int64
	Tag         string
	Description string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Store is the interface satisfied by *sqlite.Store. Consumers depend on
// this interface rather than on the concrete type so alternative
// implementations can be substituted in tests.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, project *Project) error
	ProjectByPath(ctx context.Context, namespace, name string) (*Project, error)

	// Local accounts and identity lookups
	CreateUser(ctx context.Context, user *User) error
	AddUserEmail(ctx context.Context, userID int64, email string) error
	AddIdentity(ctx context.Context, userID int64, provider string, externUID int64) error
	UserByExternalUID(ctx context.Context, provider string, externUID int64) (int64, error)
	UserByAnyEmail(ctx context.Context, email string) (int64, error)

	// Labels
	LabelExists(ctx context.Context, projectID int64, title string) (bool, error)
	CreateLabel(ctx context.Context, label *Label) error
	ProjectLabels(ctx context.Context, projectID int64) ([]*Label, error)

	// Milestones
	MilestoneExists(ctx context.Context, projectID int64, iid int) (bool, error)
	CreateMilestone(ctx context.Context, milestone *Milestone) error
	MilestoneIDByIID(ctx context.Context, projectID int64, iid int) (int64, error)

	// Merge requests
	MergeRequestExists(ctx context.Context, sourceProjectID int64, iid int) (bool, error)
	CreateMergeRequest(ctx context.Context, mr *MergeRequest) error
	CreateMergeRequestDiff(ctx context.Context, mergeRequestID int64) error
	MergeRequestIDByIID(ctx context.Context, targetProjectID int64, iid int) (int64, error)
	MergeRequestByIID(ctx context.Context, targetProjectID int64, iid int) (*MergeRequest, error)
	SetMergeRequestLabels(ctx context.Context, mergeRequestID int64, labelIDs []int64) error
	MergeRequestLabelIDs(ctx context.Context, mergeRequestID int64) ([]int64, error)

	// Issues
	IssueExists(ctx context.Context, projectID int64, iid int) (bool, error)
	CreateIssue(ctx context.Context, issue *Issue) error
	IssueByIID(ctx context.Context, projectID int64, iid int) (*Issue, error)
	SetIssueLabels(ctx context.Context, issueID int64, labelIDs []int64) error
	IssueLabelIDs(ctx context.Context, issueID int64) ([]int64, error)

	// Notes
	CreateNote(ctx context.Context, note *Note) error
	NotesForNoteable(ctx context.Context, noteableType string, noteableID int64) ([]*Note, error)

	// Releases
	ReleaseExists(ctx context.Context, projectID int64, tag string) (bool, error)
	CreateRelease(ctx context.Context, release *Release) error

	// Lifecycle
	Close() error
}
