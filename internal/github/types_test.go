package github

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// TestPullRequestValid verifies structural validation of pull requests.
func TestPullRequestValid(t *testing.T) {
	tests := []struct {
		name string
		pr   PullRequest
		want bool
	}{
		{
			name: "complete refs",
			pr: PullRequest{
				Head: BranchRef{Ref: "feature", SHA: "aaa"},
				Base: BranchRef{Ref: "master", SHA: "bbb"},
			},
			want: true,
		},
		{
			name: "missing head ref",
			pr: PullRequest{
				Head: BranchRef{SHA: "aaa"},
				Base: BranchRef{Ref: "master", SHA: "bbb"},
			},
			want: false,
		},
		{
			name: "missing base sha",
			pr: PullRequest{
				Head: BranchRef{Ref: "feature", SHA: "aaa"},
				Base: BranchRef{Ref: "master"},
			},
			want: false,
		},
		{
			name: "empty",
			pr:   PullRequest{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pr.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPullRequestLocalState verifies GitHub state mapping for merge requests.
func TestPullRequestLocalState(t *testing.T) {
	merged := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		pr   PullRequest
		want string
	}{
		{name: "open", pr: PullRequest{State: "open"}, want: "opened"},
		{name: "closed", pr: PullRequest{State: "closed"}, want: "closed"},
		{name: "merged", pr: PullRequest{State: "closed", MergedAt: &merged}, want: "merged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pr.LocalState(); got != tt.want {
				t.Errorf("LocalState() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestMilestoneLocalState verifies milestone state mapping.
func TestMilestoneLocalState(t *testing.T) {
	open := Milestone{State: "open"}
	if got := open.LocalState(); got != "active" {
		t.Errorf("LocalState() = %q, want %q", got, "active")
	}
	closed := Milestone{State: "closed"}
	if got := closed.LocalState(); got != "closed" {
		t.Errorf("LocalState() = %q, want %q", got, "closed")
	}
}

// TestIssueIsPullRequest verifies PR detection on the issues endpoint.
func TestIssueIsPullRequest(t *testing.T) {
	var issue Issue
	raw := `{"number": 5, "pull_request": {"url": "https://api.github.com/repos/o/r/pulls/5"}}`
	if err := json.Unmarshal([]byte(raw), &issue); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !issue.IsPullRequest() {
		t.Error("IsPullRequest() = false, want true")
	}

	var plain Issue
	if err := json.Unmarshal([]byte(`{"number": 6}`), &plain); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if plain.IsPullRequest() {
		t.Error("IsPullRequest() = true, want false")
	}
}

// TestCommentLineCode verifies line code derivation for review comments.
func TestCommentLineCode(t *testing.T) {
	pos := 4
	review := Comment{Path: "lib/a.rb", Position: &pos}
	want := fmt.Sprintf("%x_0_4", sha1.Sum([]byte("lib/a.rb")))
	if got := review.LineCode(); got != want {
		t.Errorf("LineCode() = %q, want %q", got, want)
	}
	if got := review.NoteKind(); got != "DiffNote" {
		t.Errorf("NoteKind() = %q, want %q", got, "DiffNote")
	}

	plain := Comment{Body: "looks good"}
	if got := plain.LineCode(); got != "" {
		t.Errorf("LineCode() = %q, want empty", got)
	}
	if got := plain.NoteKind(); got != "" {
		t.Errorf("NoteKind() = %q, want empty", got)
	}
}

// TestReleaseValid verifies drafts and tagless releases are rejected.
func TestReleaseValid(t *testing.T) {
	tests := []struct {
		name    string
		release Release
		want    bool
	}{
		{name: "tagged", release: Release{TagName: "v1.0"}, want: true},
		{name: "draft", release: Release{TagName: "v1.0", Draft: true}, want: false},
		{name: "no tag", release: Release{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.release.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
