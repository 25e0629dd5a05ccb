package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hublift/hublift/internal/importer"
	"github.com/hublift/hublift/internal/store"
)

// countingStore counts identity lookups so caching can be observed.
type countingStore struct {
	store.Store
	uidLookups   int
	emailLookups int
}

func (c *countingStore) UserByExternalUID(ctx context.Context, provider string, externUID int64) (int64, error) {
	c.uidLookups++
	return c.Store.UserByExternalUID(ctx, provider, externUID)
}

func (c *countingStore) UserByAnyEmail(ctx context.Context, email string) (int64, error) {
	c.emailLookups++
	return c.Store.UserByAnyEmail(ctx, email)
}

// TestAuthorResolvedByIdentity verifies a remote author linked to a
// local account keeps their own authorship and an unprefixed body.
func TestAuthorResolvedByIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := &store.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, env.store.CreateUser(ctx, alice))
	require.NoError(t, env.store.AddIdentity(ctx, alice.ID, "github", 999))

	env.fetcher.addPage("/repos/octocat/hello/issues",
		`{"number": 1, "title": "Mine", "body": "as written", "state": "open",
		  "user": {"id": 999, "login": "alice-gh"}, "comments": 0}`)

	require.Empty(t, env.run(ctx))

	issue, err := env.store.IssueByIID(ctx, env.project.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, issue.AuthorID)
	assert.Equal(t, "as written", issue.Description)
}

// TestAuthorResolvedBySecondaryEmail verifies email-based resolution
// covers secondary addresses too.
func TestAuthorResolvedBySecondaryEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	bob := &store.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, env.store.CreateUser(ctx, bob))
	require.NoError(t, env.store.AddUserEmail(ctx, bob.ID, "bob@old.example.com"))

	env.fetcher.addPage("/repos/octocat/hello/issues",
		`{"number": 1, "title": "Hi", "body": "text", "state": "open",
		  "user": {"id": 42, "login": "bobby", "email": "bob@old.example.com"},
		  "comments": 0}`)

	require.Empty(t, env.run(ctx))

	issue, err := env.store.IssueByIID(ctx, env.project.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, issue.AuthorID)
	assert.Equal(t, "text", issue.Description)
}

// TestAssigneeHasNoFallback verifies an unresolvable assignee stays
// null instead of inheriting the fallback owner.
func TestAssigneeHasNoFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.fetcher.addPage("/repos/octocat/hello/issues",
		`{"number": 1, "title": "Hi", "state": "open",
		  "user": {"id": 42, "login": "stranger"},
		  "assignee": {"id": 43, "login": "other"}, "comments": 0}`)

	require.Empty(t, env.run(ctx))

	issue, err := env.store.IssueByIID(ctx, env.project.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, issue.AssigneeID)
	assert.Equal(t, env.project.CreatorID, issue.AuthorID)
}

// TestUserResolutionCached verifies repeated references to the same
// remote user hit the store once.
func TestUserResolutionCached(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	counting := &countingStore{Store: env.store}

	env.fetcher.addPage("/repos/octocat/hello/issues",
		`{"number": 1, "title": "One", "state": "open",
		  "user": {"id": 999, "login": "stranger"}, "comments": 1}`,
		`{"number": 2, "title": "Two", "state": "open",
		  "user": {"id": 999, "login": "stranger"}, "comments": 0}`)
	env.fetcher.addPage("/repos/octocat/hello/issues/1/comments",
		`{"id": 5, "body": "ping", "user": {"id": 999, "login": "stranger"}}`)

	errs := importer.New(env.project, counting, env.repo, env.fetcher, env.opts).Execute(ctx)
	assert.Empty(t, errs)

	// Two issues and a comment by the same author, one store lookup.
	assert.Equal(t, 1, counting.uidLookups)
}
