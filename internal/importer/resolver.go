package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hublift/hublift/internal/github"
	"github.com/hublift/hublift/internal/store"
)

// identityProvider is the provider name used for external identity links.
const identityProvider = "github"

// userID maps a remote user to a local account id. Resolution order:
// explicit identity link for the provider, then any local account email.
// The outcome, including a fallback one, is cached so thousands of
// comments by the same handful of authors cost one lookup each.
//
// fallback may be nil (assignees have no fallback); the return value is
// nil when nothing matched and no fallback was given.
func (im *Import) userID(ctx context.Context, user *github.User, fallback *int64) *int64 {
	if user == nil {
		return nil
	}
	if id, ok := im.cachedUserIDs[user.ID]; ok {
		return id
	}

	localID := im.findByExternalUID(ctx, user.ID)
	if localID == nil {
		localID = im.findByEmail(ctx, user.Email)
	}

	// Whether a genuine local account matched, as opposed to falling
	// through to the fallback owner. Decides attribution formatting.
	im.cachedLocalUsers[user.ID] = localID != nil

	if localID == nil {
		localID = fallback
	}
	im.cachedUserIDs[user.ID] = localID
	return localID
}

func (im *Import) findByExternalUID(ctx context.Context, externUID int64) *int64 {
	id, err := im.store.UserByExternalUID(ctx, identityProvider, externUID)
	if err != nil {
		return nil
	}
	return &id
}

func (im *Import) findByEmail(ctx context.Context, email string) *int64 {
	if email == "" {
		return nil
	}
	id, err := im.store.UserByAnyEmail(ctx, email)
	if err != nil {
		return nil
	}
	return &id
}

// authorID resolves a remote author with the project owner as fallback.
// The owner id is returned even for a nil author so imported records
// always carry a valid author.
func (im *Import) authorID(ctx context.Context, user *github.User) int64 {
	if id := im.userID(ctx, user, &im.project.CreatorID); id != nil {
		return *id
	}
	return im.project.CreatorID
}

// milestoneID maps a remote milestone to the local milestone id by iid.
// No caching: milestones are few and their stage has already run. A
// missing milestone yields nil silently (best effort, not an error).
func (im *Import) milestoneID(ctx context.Context, milestone *github.Milestone) *int64 {
	if milestone == nil {
		return nil
	}
	id, err := im.store.MilestoneIDByIID(ctx, im.project.ID, milestone.Number)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			im.recordError(KindMilestone, milestone.HTMLURL, err.Error())
		}
		return nil
	}
	return &id
}

// labelIDs maps remote label names through the title cache populated by
// the label stage. Unknown titles are dropped silently.
func (im *Import) labelIDs(labels []github.Label) []int64 {
	var ids []int64
	for _, label := range labels {
		if id, ok := im.cachedLabelIDs[label.Name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// formatDescription returns body unchanged when the author is a genuine
// local account, and otherwise prepends an attribution line: without it
// the record would appear to have been written by the fallback owner.
func (im *Import) formatDescription(body string, author *github.User) string {
	if author == nil || im.cachedLocalUsers[author.ID] {
		return body
	}
	return fmt.Sprintf("*Created by: %s*\n\n%s", author.Login, body)
}
