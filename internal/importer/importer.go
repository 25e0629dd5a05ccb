// Package importer migrates a GitHub repository's collaboration history
// into a local project: git refs, labels, milestones, pull requests,
// issues, comments, optionally releases, and the wiki.
//
// A run executes its stages in a fixed order and always reaches the end;
// every per-item failure is recorded in the error ledger and processing
// continues with the next item. The ledger is the run's result, and a
// partially successful run is a normal outcome. Re-runs are idempotent:
// records already present under their natural key are skipped.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/gitrepo"
	"github.com/hublift/hublift/internal/store"
)

// remoteName is the mirror remote registered on the project repository.
const remoteName = "github"

// Fetcher pages through remote collection endpoints. Satisfied by
// *github.Client.
type Fetcher interface {
	GetPage(ctx context.Context, path string, params map[string]string) (*github.Page, error)
	GetPageURL(ctx context.Context, url string) (*github.Page, error)
}

// Repository is the git storage surface the importer drives. Satisfied
// by *gitrepo.Repository.
type Repository interface {
	Create(ctx context.Context) error
	AddMirrorRemote(ctx context.Context, name, url string) error
	FetchRemote(ctx context.Context, name string, forced bool) error
	BranchExists(ctx context.Context, name string) (bool, error)
	CreateBranch(ctx context.Context, name, sha string) error
	DeleteBranch(ctx context.Context, name string) error
	WikiExists() bool
	ImportWiki(ctx context.Context, sourceURL string) error
	InvalidateContentCache() error
}

// Options configures a single import run.
type Options struct {
	RepoPath      string // GitHub repository coordinate, "owner/name"
	RemoteURL     string // Authenticated clone URL of the repository
	WikiRemoteURL string // Authenticated clone URL of the companion wiki
	Releases      bool   // Import the releases stage too
}

// Import is one run against one project. It is created per invocation
// and discarded after Execute; its caches are scoped to the run and
// never shared.
type Import struct {
	project *store.Project
	store   store.Store
	repo    Repository
	client  Fetcher
	opts    Options

	cachedLabelIDs   map[string]int64 // label title -> local id
	cachedUserIDs    map[int64]*int64 // remote user id -> resolved local id
	cachedLocalUsers map[int64]bool   // remote user id -> matched a genuine local account

	errs []Error
}

// New builds an import run for the given project.
func New(project *store.Project, recordStore store.Store, repo Repository, client Fetcher, opts Options) *Import {
	return &Import{
		project:          project,
		store:            recordStore,
		repo:             repo,
		client:           client,
		opts:             opts,
		cachedLabelIDs:   make(map[string]int64),
		cachedUserIDs:    make(map[int64]*int64),
		cachedLocalUsers: make(map[int64]bool),
	}
}

// Execute runs all stages in order and returns the accumulated error
// records. No stage failure changes the stage sequence.
func (im *Import) Execute(ctx context.Context) []Error {
	im.fetchRepository(ctx)
	im.fetchLabels(ctx)
	im.fetchMilestones(ctx)
	im.fetchPullRequests(ctx)
	im.fetchIssues(ctx)
	if im.opts.Releases {
		im.fetchReleases(ctx)
	}
	im.fetchWikiRepository(ctx)
	im.expireRepositoryCache()

	return im.errs
}

// eachPage streams a paginated collection, invoking fn per raw item.
// A transport failure is recorded under kind, against the URL of the
// page that failed, and ends the stage; the items already fetched have
// been processed by then.
func (im *Import) eachPage(ctx context.Context, kind Kind, path string, params map[string]string, fn func(raw json.RawMessage)) {
	pageURL := path
	page, err := im.client.GetPage(ctx, path, params)
	for {
		if err != nil {
			im.recordError(kind, pageURL, err.Error())
			return
		}
		for _, raw := range page.Items {
			fn(raw)
		}
		if page.NextURL == "" {
			return
		}
		pageURL = page.NextURL
		page, err = im.client.GetPageURL(ctx, pageURL)
	}
}

// fetchRepository creates the project repository and mirrors the remote
// into it. Failure is recorded but later stages still run; they operate
// against whatever refs are present.
func (im *Import) fetchRepository(ctx context.Context) {
	publicURL := "https://github.com/" + im.opts.RepoPath + ".git"

	if err := im.repo.Create(ctx); err != nil {
		im.recordError(KindRepository, publicURL, err.Error())
		return
	}
	if err := im.repo.AddMirrorRemote(ctx, remoteName, im.opts.RemoteURL); err != nil {
		im.recordError(KindRepository, publicURL, err.Error())
		return
	}
	if err := im.repo.FetchRemote(ctx, remoteName, true); err != nil {
		im.recordError(KindRepository, publicURL, err.Error())
	}
}

// fetchLabels imports project labels, then fills the title -> id cache
// used by every later stage. Existing titles are skipped so the first
// occurrence wins.
func (im *Import) fetchLabels(ctx context.Context) {
	im.eachPage(ctx, KindLabel, "/repos/"+im.opts.RepoPath+"/labels", nil, func(raw json.RawMessage) {
		var label github.Label
		if err := json.Unmarshal(raw, &label); err != nil {
			im.recordError(KindLabel, "", err.Error())
			return
		}

		exists, err := im.store.LabelExists(ctx, im.project.ID, label.Name)
		if err != nil {
			im.recordError(KindLabel, label.URL, err.Error())
			return
		}
		if exists {
			return
		}

		if err := im.store.CreateLabel(ctx, &store.Label{
			ProjectID: im.project.ID,
			Title:     label.Name,
			Color:     "#" + label.Color,
		}); err != nil {
			im.recordError(KindLabel, label.URL, err.Error())
		}
	})

	labels, err := im.store.ProjectLabels(ctx, im.project.ID)
	if err != nil {
		im.recordError(KindLabel, "", err.Error())
		return
	}
	for _, label := range labels {
		im.cachedLabelIDs[label.Title] = label.ID
	}
}

// fetchMilestones imports milestones of all states.
func (im *Import) fetchMilestones(ctx context.Context) {
	params := map[string]string{"state": "all"}

	im.eachPage(ctx, KindMilestone, "/repos/"+im.opts.RepoPath+"/milestones", params, func(raw json.RawMessage) {
		var milestone github.Milestone
		if err := json.Unmarshal(raw, &milestone); err != nil {
			im.recordError(KindMilestone, "", err.Error())
			return
		}

		exists, err := im.store.MilestoneExists(ctx, im.project.ID, milestone.Number)
		if err != nil {
			im.recordError(KindMilestone, milestone.HTMLURL, err.Error())
			return
		}
		if exists {
			return
		}

		if err := im.store.CreateMilestone(ctx, &store.Milestone{
			ProjectID:   im.project.ID,
			IID:         milestone.Number,
			Title:       milestone.Title,
			Description: milestone.Description,
			State:       milestone.LocalState(),
			DueDate:     milestone.DueOn,
			CreatedAt:   milestone.CreatedAt,
			UpdatedAt:   milestone.UpdatedAt,
		}); err != nil {
			im.recordError(KindMilestone, milestone.HTMLURL, err.Error())
		}
	})
}

// fetchPullRequests imports pull requests of all states in creation
// order, together with their comment streams and diff branches.
func (im *Import) fetchPullRequests(ctx context.Context) {
	params := map[string]string{"state": "all", "sort": "created", "direction": "asc"}

	im.eachPage(ctx, KindPullRequest, "/repos/"+im.opts.RepoPath+"/pulls", params, func(raw json.RawMessage) {
		var pr github.PullRequest
		if err := json.Unmarshal(raw, &pr); err != nil {
			im.recordError(KindPullRequest, "", err.Error())
			return
		}

		exists, err := im.store.MergeRequestExists(ctx, im.project.ID, pr.Number)
		if err != nil {
			im.recordError(KindPullRequest, pr.HTMLURL, err.Error())
			return
		}
		// Structurally invalid requests are skipped silently; they are
		// not importable, not broken.
		if exists || !pr.Valid() {
			return
		}

		im.importPullRequest(ctx, &pr)
	})
}

// importPullRequest materializes one pull request: diff branches, the
// merge request record with its diff snapshot, then both comment
// streams. Branch cleanup is deferred so it runs even when comment
// import fails partway.
func (im *Import) importPullRequest(ctx context.Context, pr *github.PullRequest) {
	restored, err := im.restoreBranches(ctx, pr)
	defer im.cleanupRestoredBranches(ctx, pr, restored)
	if err != nil {
		im.recordError(KindPullRequest, pr.HTMLURL, err.Error())
		return
	}

	// Resolve the author before formatting: attribution depends on
	// whether a genuine local account matched.
	authorID := im.authorID(ctx, pr.User)

	mr := &store.MergeRequest{
		IID:             pr.Number,
		SourceProjectID: im.project.ID,
		TargetProjectID: im.project.ID,
		Title:           pr.Title,
		Description:     im.formatDescription(pr.Body, pr.User),
		SourceBranch:    pr.Head.Ref,
		SourceBranchSHA: pr.Head.SHA,
		TargetBranch:    pr.Base.Ref,
		TargetBranchSHA: pr.Base.SHA,
		State:           pr.LocalState(),
		MilestoneID:     im.milestoneID(ctx, pr.Milestone),
		AuthorID:        authorID,
		AssigneeID:      im.userID(ctx, pr.Assignee, nil),
		CreatedAt:       pr.CreatedAt,
		UpdatedAt:       pr.UpdatedAt,
	}

	if err := im.store.CreateMergeRequest(ctx, mr); err != nil {
		im.recordError(KindPullRequest, pr.HTMLURL, err.Error())
		return
	}
	if err := im.store.CreateMergeRequestDiff(ctx, mr.ID); err != nil {
		im.recordError(KindPullRequest, pr.HTMLURL, err.Error())
		return
	}

	iid := strconv.Itoa(pr.Number)
	im.fetchComments(ctx, store.NoteableMergeRequest, mr.ID, KindReviewComment,
		"/repos/"+im.opts.RepoPath+"/pulls/"+iid+"/comments")
	im.fetchComments(ctx, store.NoteableMergeRequest, mr.ID, KindComment,
		"/repos/"+im.opts.RepoPath+"/issues/"+iid+"/comments")
}

// fetchIssues imports issues of all states in creation order. GitHub
// serves pull requests on the issues endpoint too; those are handled
// purely as a label merge onto the matching merge request.
func (im *Import) fetchIssues(ctx context.Context) {
	params := map[string]string{"state": "all", "sort": "created", "direction": "asc"}

	im.eachPage(ctx, KindIssue, "/repos/"+im.opts.RepoPath+"/issues", params, func(raw json.RawMessage) {
		var issue github.Issue
		if err := json.Unmarshal(raw, &issue); err != nil {
			im.recordError(KindIssue, "", err.Error())
			return
		}

		if issue.IsPullRequest() {
			im.mergeLabelsOntoMergeRequest(ctx, &issue)
			return
		}
		im.importIssue(ctx, &issue)
	})
}

// mergeLabelsOntoMergeRequest applies an issue-flavored pull request's
// labels to the merge request imported earlier under the same iid.
// Label manipulation is only exposed through the issues endpoint, which
// is the sole reason these items are visited at all.
func (im *Import) mergeLabelsOntoMergeRequest(ctx context.Context, issue *github.Issue) {
	if !issue.HasLabels() {
		return
	}
	mergeRequestID, err := im.store.MergeRequestIDByIID(ctx, im.project.ID, issue.Number)
	if err != nil {
		im.recordError(KindIssue, issue.HTMLURL, err.Error())
		return
	}
	if err := im.store.SetMergeRequestLabels(ctx, mergeRequestID, im.labelIDs(issue.Labels)); err != nil {
		im.recordError(KindIssue, issue.HTMLURL, err.Error())
	}
}

// importIssue persists one issue and, when present, its comment stream.
func (im *Import) importIssue(ctx context.Context, issue *github.Issue) {
	exists, err := im.store.IssueExists(ctx, im.project.ID, issue.Number)
	if err != nil {
		im.recordError(KindIssue, issue.HTMLURL, err.Error())
		return
	}
	if exists {
		return
	}

	authorID := im.authorID(ctx, issue.User)

	record := &store.Issue{
		IID:         issue.Number,
		ProjectID:   im.project.ID,
		Title:       issue.Title,
		Description: im.formatDescription(issue.Body, issue.User),
		State:       issue.LocalState(),
		MilestoneID: im.milestoneID(ctx, issue.Milestone),
		AuthorID:    authorID,
		AssigneeID:  im.userID(ctx, issue.Assignee, nil),
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}

	if err := im.store.CreateIssue(ctx, record); err != nil {
		im.recordError(KindIssue, issue.HTMLURL, err.Error())
		return
	}
	if labelIDs := im.labelIDs(issue.Labels); len(labelIDs) > 0 {
		if err := im.store.SetIssueLabels(ctx, record.ID, labelIDs); err != nil {
			im.recordError(KindIssue, issue.HTMLURL, err.Error())
		}
	}

	if issue.HasComments() {
		im.fetchComments(ctx, store.NoteableIssue, record.ID, KindComment,
			"/repos/"+im.opts.RepoPath+"/issues/"+strconv.Itoa(issue.Number)+"/comments")
	}
}

// fetchComments imports one comment stream onto a noteable. Writes do
// not perturb the noteable's own updated_at.
func (im *Import) fetchComments(ctx context.Context, noteableType string, noteableID int64, kind Kind, path string) {
	im.eachPage(ctx, kind, path, nil, func(raw json.RawMessage) {
		var comment github.Comment
		if err := json.Unmarshal(raw, &comment); err != nil {
			im.recordError(kind, "", err.Error())
			return
		}

		authorID := im.authorID(ctx, comment.User)

		note := &store.Note{
			ProjectID:    im.project.ID,
			NoteableType: noteableType,
			NoteableID:   noteableID,
			Body:         im.formatDescription(comment.Body, comment.User),
			CommitID:     comment.CommitID,
			LineCode:     comment.LineCode(),
			Kind:         comment.NoteKind(),
			AuthorID:     authorID,
			CreatedAt:    comment.CreatedAt,
			UpdatedAt:    comment.UpdatedAt,
		}
		if err := im.store.CreateNote(ctx, note); err != nil {
			im.recordError(kind, comment.HTMLURL, err.Error())
		}
	})
}

// fetchReleases imports tagged releases. Drafts and tagless items fail
// the validity check and are skipped silently.
func (im *Import) fetchReleases(ctx context.Context) {
	im.eachPage(ctx, KindRelease, "/repos/"+im.opts.RepoPath+"/releases", nil, func(raw json.RawMessage) {
		var release github.Release
		if err := json.Unmarshal(raw, &release); err != nil {
			im.recordError(KindRelease, "", err.Error())
			return
		}
		if !release.Valid() {
			return
		}

		exists, err := im.store.ReleaseExists(ctx, im.project.ID, release.TagName)
		if err != nil {
			im.recordError(KindRelease, release.HTMLURL, err.Error())
			return
		}
		if exists {
			return
		}

		if err := im.store.CreateRelease(ctx, &store.Release{
			ProjectID:   im.project.ID,
			Tag:         release.TagName,
			Description: release.Body,
			CreatedAt:   release.CreatedAt,
			UpdatedAt:   release.UpdatedAt,
		}); err != nil {
			im.recordError(KindRelease, release.HTMLURL, err.Error())
		}
	})
}

// fetchWikiRepository imports the companion wiki unless one already
// exists locally. A wiki that was enabled but never written to surfaces
// as "repository not exported" on the remote and is a benign no-op.
func (im *Import) fetchWikiRepository(ctx context.Context) {
	if im.repo.WikiExists() {
		return
	}
	if err := im.repo.ImportWiki(ctx, im.opts.WikiRemoteURL); err != nil {
		if errors.Is(err, gitrepo.ErrRepositoryNotExported) {
			return
		}
		im.recordError(KindWiki, im.opts.WikiRemoteURL, err.Error())
	}
}

// expireRepositoryCache invalidates cached rendered content so reads
// reflect the freshly imported refs.
func (im *Import) expireRepositoryCache() {
	if err := im.repo.InvalidateContentCache(); err != nil {
		im.recordError(KindRepository, "", fmt.Sprintf("failed to expire repository cache: %v", err))
	}
}
