package importer

import "net/url"

// Kind tags an error record with the entity stage that produced it.
type Kind string

// The closed set of error kinds.
const (
	KindRepository    Kind = "repository"
	KindLabel         Kind = "label"
	KindMilestone     Kind = "milestone"
	KindPullRequest   Kind = "pull_request"
	KindIssue         Kind = "issue"
	KindComment       Kind = "comment"
	KindReviewComment Kind = "review_comment"
	KindRelease       Kind = "release"
	KindWiki          Kind = "wiki"
	KindBranch        Kind = "branch"
)

// Error is one failure record accumulated during a run. Records are
// append-only; the full list is the run's result.
type Error struct {
	Kind    Kind   `json:"kind"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// recordError appends a failure record, sanitizing the URL first.
func (im *Import) recordError(kind Kind, rawURL, message string) {
	im.errs = append(im.errs, Error{
		Kind:    kind,
		URL:     sanitizeURL(rawURL),
		Message: message,
	})
}

// sanitizeURL strips credentials from a URL before it is recorded.
// Import URLs embed the access token as userinfo, and that token must
// never surface in error output.
func sanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.User = nil
	return u.String()
}
