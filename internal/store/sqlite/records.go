package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hublift/hublift/internal/store"
)

// CreateProject inserts a project and backfills its generated id.
func (s *Store) CreateProject(ctx context.Context, project *store.Project) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (namespace, name, creator_id) VALUES (?, ?, ?)`,
		project.Namespace, project.Name, project.CreatorID)
	if err != nil {
		return fmt.Errorf("failed to create project %s: %w", project.PathWithNamespace(), err)
	}
	project.ID, err = res.LastInsertId()
	return err
}

// ProjectByPath looks a project up by its namespace/name path.
func (s *Store) ProjectByPath(ctx context.Context, namespace, name string) (*store.Project, error) {
	project := &store.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, namespace, name, creator_id FROM projects WHERE namespace = ? AND name = ?`,
		namespace, name).
		Scan(&project.ID, &project.Namespace, &project.Name, &project.CreatorID)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// LabelExists reports whether a label with this title exists in the project.
// The title match is case-sensitive.
func (s *Store) LabelExists(ctx context.Context, projectID int64, title string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM labels WHERE project_id = ? AND title = ?`, projectID, title)
}

// CreateLabel inserts a label.
func (s *Store) CreateLabel(ctx context.Context, label *store.Label) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (project_id, title, color) VALUES (?, ?, ?)`,
		label.ProjectID, label.Title, label.Color)
	if err != nil {
		return fmt.Errorf("failed to create label %q: %w", label.Title, err)
	}
	label.ID, err = res.LastInsertId()
	return err
}

// ProjectLabels returns all labels of a project.
func (s *Store) ProjectLabels(ctx context.Context, projectID int64) ([]*store.Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, title, color FROM labels WHERE project_id = ? ORDER BY id`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var labels []*store.Label
	for rows.Next() {
		label := &store.Label{}
		if err := rows.Scan(&label.ID, &label.ProjectID, &label.Title, &label.Color); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// MilestoneExists reports whether a milestone with this iid exists in the project.
func (s *Store) MilestoneExists(ctx context.Context, projectID int64, iid int) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM milestones WHERE project_id = ? AND iid = ?`, projectID, iid)
}

// CreateMilestone inserts a milestone.
func (s *Store) CreateMilestone(ctx context.Context, milestone *store.Milestone) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO milestones (project_id, iid, title, description, state, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		milestone.ProjectID, milestone.IID, milestone.Title, milestone.Description,
		milestone.State, timeString(milestone.DueDate),
		timeString(milestone.CreatedAt), timeString(milestone.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create milestone %d: %w", milestone.IID, err)
	}
	milestone.ID, err = res.LastInsertId()
	return err
}

// MilestoneIDByIID resolves a milestone iid to its local id.
func (s *Store) MilestoneIDByIID(ctx context.Context, projectID int64, iid int) (int64, error) {
	return s.scalarID(ctx,
		`SELECT id FROM milestones WHERE project_id = ? AND iid = ?`, projectID, iid)
}

// MergeRequestExists reports whether a merge request with this
// (source project, iid) natural key exists.
func (s *Store) MergeRequestExists(ctx context.Context, sourceProjectID int64, iid int) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM merge_requests WHERE source_project_id = ? AND iid = ?`, sourceProjectID, iid)
}

// CreateMergeRequest inserts a merge request.
func (s *Store) CreateMergeRequest(ctx context.Context, mr *store.MergeRequest) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO merge_requests (iid, source_project_id, target_project_id, title, description,
		 source_branch, source_branch_sha, target_branch, target_branch_sha,
		 state, milestone_id, author_id, assignee_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mr.IID, mr.SourceProjectID, mr.TargetProjectID, mr.Title, mr.Description,
		mr.SourceBranch, mr.SourceBranchSHA, mr.TargetBranch, mr.TargetBranchSHA,
		mr.State, nullID(mr.MilestoneID), mr.AuthorID, nullID(mr.AssigneeID),
		timeString(mr.CreatedAt), timeString(mr.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create merge request %d: %w", mr.IID, err)
	}
	mr.ID, err = res.LastInsertId()
	return err
}

// CreateMergeRequestDiff inserts an empty diff snapshot row for a merge request.
func (s *Store) CreateMergeRequestDiff(ctx context.Context, mergeRequestID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO merge_request_diffs (merge_request_id, created_at) VALUES (?, datetime('now'))`,
		mergeRequestID)
	if err != nil {
		return fmt.Errorf("failed to create merge request diff: %w", err)
	}
	return nil
}

// MergeRequestIDByIID resolves a merge request iid (scoped to the target
// project) to its local id.
func (s *Store) MergeRequestIDByIID(ctx context.Context, targetProjectID int64, iid int) (int64, error) {
	return s.scalarID(ctx,
		`SELECT id FROM merge_requests WHERE target_project_id = ? AND iid = ?`, targetProjectID, iid)
}

// MergeRequestByIID loads a merge request by its iid within the target project.
func (s *Store) MergeRequestByIID(ctx context.Context, targetProjectID int64, iid int) (*store.MergeRequest, error) {
	mr := &store.MergeRequest{}
	var milestoneID, assigneeID sql.NullInt64
	var createdAt, updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, iid, source_project_id, target_project_id, title, description,
		 source_branch, source_branch_sha, target_branch, target_branch_sha,
		 state, milestone_id, author_id, assignee_id, created_at, updated_at
		 FROM merge_requests WHERE target_project_id = ? AND iid = ?`,
		targetProjectID, iid).
		Scan(&mr.ID, &mr.IID, &mr.SourceProjectID, &mr.TargetProjectID, &mr.Title, &mr.Description,
			&mr.SourceBranch, &mr.SourceBranchSHA, &mr.TargetBranch, &mr.TargetBranchSHA,
			&mr.State, &milestoneID, &mr.AuthorID, &assigneeID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	mr.MilestoneID = parseID(milestoneID)
	mr.AssigneeID = parseID(assigneeID)
	mr.CreatedAt = parseTime(createdAt)
	mr.UpdatedAt = parseTime(updatedAt)
	return mr, nil
}

// MergeRequestLabelIDs returns the label ids attached to a merge request.
func (s *Store) MergeRequestLabelIDs(ctx context.Context, mergeRequestID int64) ([]int64, error) {
	return s.labelIDsFor(ctx, "merge_request_labels", "merge_request_id", mergeRequestID)
}

// SetMergeRequestLabels replaces the labels of a merge request.
func (s *Store) SetMergeRequestLabels(ctx context.Context, mergeRequestID int64, labelIDs []int64) error {
	return s.setLabels(ctx, "merge_request_labels", "merge_request_id", mergeRequestID, labelIDs)
}

// IssueExists reports whether an issue with this iid exists in the project.
func (s *Store) IssueExists(ctx context.Context, projectID int64, iid int) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM issues WHERE project_id = ? AND iid = ?`, projectID, iid)
}

// CreateIssue inserts an issue.
func (s *Store) CreateIssue(ctx context.Context, issue *store.Issue) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (iid, project_id, title, description, state,
		 milestone_id, author_id, assignee_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.IID, issue.ProjectID, issue.Title, issue.Description, issue.State,
		nullID(issue.MilestoneID), issue.AuthorID, nullID(issue.AssigneeID),
		timeString(issue.CreatedAt), timeString(issue.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create issue %d: %w", issue.IID, err)
	}
	issue.ID, err = res.LastInsertId()
	return err
}

// IssueByIID loads an issue by its iid within the project.
func (s *Store) IssueByIID(ctx context.Context, projectID int64, iid int) (*store.Issue, error) {
	issue := &store.Issue{}
	var milestoneID, assigneeID sql.NullInt64
	var createdAt, updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, iid, project_id, title, description, state,
		 milestone_id, author_id, assignee_id, created_at, updated_at
		 FROM issues WHERE project_id = ? AND iid = ?`,
		projectID, iid).
		Scan(&issue.ID, &issue.IID, &issue.ProjectID, &issue.Title, &issue.Description, &issue.State,
			&milestoneID, &issue.AuthorID, &assigneeID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	issue.MilestoneID = parseID(milestoneID)
	issue.AssigneeID = parseID(assigneeID)
	issue.CreatedAt = parseTime(createdAt)
	issue.UpdatedAt = parseTime(updatedAt)
	return issue, nil
}

// SetIssueLabels replaces the labels of an issue.
func (s *Store) SetIssueLabels(ctx context.Context, issueID int64, labelIDs []int64) error {
	return s.setLabels(ctx, "issue_labels", "issue_id", issueID, labelIDs)
}

// IssueLabelIDs returns the label ids attached to an issue.
func (s *Store) IssueLabelIDs(ctx context.Context, issueID int64) ([]int64, error) {
	return s.labelIDsFor(ctx, "issue_labels", "issue_id", issueID)
}

// labelIDsFor reads the label ids from a join table.
func (s *Store) labelIDsFor(ctx context.Context, table, column string, ownerID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT label_id FROM %s WHERE %s = ? ORDER BY label_id`, table, column), ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// setLabels replaces the label set on a join table in one transaction.
func (s *Store) setLabels(ctx context.Context, table, column string, ownerID int64, labelIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, column), ownerID); err != nil {
		return err
	}
	for _, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, label_id) VALUES (?, ?)`, table, column),
			ownerID, labelID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateNote inserts a note. The parent noteable's updated_at is left
// untouched; imported comments must not perturb it.
func (s *Store) CreateNote(ctx context.Context, note *store.Note) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (project_id, noteable_type, noteable_id, body,
		 commit_id, line_code, kind, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ProjectID, note.NoteableType, note.NoteableID, note.Body,
		note.CommitID, note.LineCode, note.Kind, note.AuthorID,
		timeString(note.CreatedAt), timeString(note.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	note.ID, err = res.LastInsertId()
	return err
}

// NotesForNoteable returns all notes on one merge request or issue, in
// insertion order.
func (s *Store) NotesForNoteable(ctx context.Context, noteableType string, noteableID int64) ([]*store.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, noteable_type, noteable_id, body,
		 commit_id, line_code, kind, author_id, created_at, updated_at
		 FROM notes WHERE noteable_type = ? AND noteable_id = ? ORDER BY id`,
		noteableType, noteableID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var notes []*store.Note
	for rows.Next() {
		note := &store.Note{}
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&note.ID, &note.ProjectID, &note.NoteableType, &note.NoteableID, &note.Body,
			&note.CommitID, &note.LineCode, &note.Kind, &note.AuthorID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		note.CreatedAt = parseTime(createdAt)
		note.UpdatedAt = parseTime(updatedAt)
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// ReleaseExists reports whether a release with this tag exists in the project.
func (s *Store) ReleaseExists(ctx context.Context, projectID int64, tag string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM releases WHERE project_id = ? AND tag = ?`, projectID, tag)
}

// CreateRelease inserts a release.
func (s *Store) CreateRelease(ctx context.Context, release *store.Release) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO releases (project_id, tag, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		release.ProjectID, release.Tag, release.Description,
		timeString(release.CreatedAt), timeString(release.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create release %q: %w", release.Tag, err)
	}
	release.ID, err = res.LastInsertId()
	return err
}
