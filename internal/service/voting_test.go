package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot/internal/domain"
)

func TestVoteIdempotentAndSwing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "scored")
	target := domain.QuestionRef(q.ID)

	counts, err := f.content.ApplyVote(ctx, bob, target, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Upvotes)
	assert.Equal(t, int64(1), counts.Score)

	// Same direction again: no-op.
	counts, err = f.content.ApplyVote(ctx, bob, target, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Upvotes)
	assert.Equal(t, int64(0), counts.Downvotes)

	// Opposite direction: the ballot moves, score swings by two.
	counts, err = f.content.ApplyVote(ctx, bob, target, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Upvotes)
	assert.Equal(t, int64(1), counts.Downvotes)
	assert.Equal(t, int64(-1), counts.Score)
}

func TestScoreIsDerived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	q := f.question(t, alice, "derived")
	target := domain.QuestionRef(q.ID)

	voters := []*domain.User{
		f.user(t, "v1", domain.RoleUser),
		f.user(t, "v2", domain.RoleUser),
		f.user(t, "v3", domain.RoleUser),
	}
	for _, v := range voters {
		_, err := f.content.ApplyVote(ctx, v, target, domain.VoteUp)
		require.NoError(t, err)
	}
	_, err := f.content.ApplyVote(ctx, alice, target, domain.VoteDown)
	require.NoError(t, err)

	got, err := f.content.GetQuestion(ctx, nil, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, got.Upvotes-got.Downvotes, got.Score)
	assert.Equal(t, int64(2), got.Score)
}

func TestRemoveVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "retracted")
	target := domain.QuestionRef(q.ID)

	_, err := f.content.ApplyVote(ctx, bob, target, domain.VoteUp)
	require.NoError(t, err)
	counts, err := f.content.RemoveVote(ctx, bob, target)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Upvotes)

	// Removing again is a no-op.
	counts, err = f.content.RemoveVote(ctx, bob, target)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Upvotes)
	assert.Equal(t, int64(0), counts.Downvotes)
}

func TestVoteOnComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "commented")
	cm, err := f.content.CreateComment(ctx, alice, domain.QuestionRef(q.ID), "hot take")
	require.NoError(t, err)

	counts, err := f.content.ApplyVote(ctx, bob, domain.CommentRef(cm.ID), domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), counts.Score)

	got, err := f.content.GetComment(ctx, bob, cm.ID, false)
	require.NoError(t, err)
	assert.True(t, got.Downvoted)
	assert.False(t, got.Upvoted)
}

func TestVoteOnInvisibleTargetNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "gone")
	require.NoError(t, f.content.SoftDeleteQuestion(ctx, alice, q.ID))

	_, err := f.content.ApplyVote(ctx, bob, domain.QuestionRef(q.ID), domain.VoteUp)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestBookmarkToggleIsInverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "saved")
	target := domain.QuestionRef(q.ID)

	on, err := f.content.ToggleBookmark(ctx, bob, target)
	require.NoError(t, err)
	assert.True(t, on)

	got, err := f.content.IsBookmarked(ctx, bob, target)
	require.NoError(t, err)
	assert.True(t, got)

	off, err := f.content.ToggleBookmark(ctx, bob, target)
	require.NoError(t, err)
	assert.False(t, off)

	got, err = f.content.IsBookmarked(ctx, bob, target)
	require.NoError(t, err)
	assert.False(t, got)

	// Bookmarks are per-user.
	got, err = f.content.IsBookmarked(ctx, alice, target)
	require.NoError(t, err)
	assert.False(t, got)
}
