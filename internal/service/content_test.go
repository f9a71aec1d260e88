package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot/internal/domain"
)

func TestCreateQuestionCollectsViolations(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", domain.RoleUser)

	_, err := f.content.CreateQuestion(context.Background(), alice, QuestionInput{
		Tags: []string{"a", "b", "c", "d", "e", "f"},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3) // title, body, tag budget
}

func TestCreateQuestionRequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.content.CreateQuestion(context.Background(), nil, QuestionInput{Title: "t", Body: "b"})
	var perr *domain.PermissionError
	assert.ErrorAs(t, err, &perr)
}

func TestSoftDeleteHidesFromDefaultViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	mod := f.user(t, "mod", domain.RoleModerator)

	q := f.question(t, alice, "how do I shadow a variable")
	require.NoError(t, f.content.SoftDeleteQuestion(ctx, alice, q.ID))

	_, err := f.content.GetQuestion(ctx, alice, q.ID, false)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	// Moderation view still sees it, status intact.
	got, err := f.content.GetQuestion(ctx, mod, q.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeleted, got.Status)

	list, err := f.content.ListQuestions(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEditDeniedForStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "original")
	_, err := f.content.EditQuestion(ctx, bob, q.ID, QuestionInput{Title: "hijacked", Body: "b"})
	var perr *domain.PermissionError
	require.ErrorAs(t, err, &perr)

	got, err := f.content.GetQuestion(ctx, nil, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestTagUsageAsymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	q := f.question(t, alice, "generics question", "go", "rust")

	// Swap rust for zig: zig is charged, rust keeps its count.
	_, err := f.content.EditQuestion(ctx, alice, q.ID, QuestionInput{
		Title: "generics question",
		Body:  "body of generics question",
		Tags:  []string{"go", "zig"},
	})
	require.NoError(t, err)

	counts := map[string]int64{}
	tags, err := f.content.ListTags(ctx)
	require.NoError(t, err)
	for _, tv := range tags {
		counts[tv.Name] = tv.UsageCount
	}
	assert.Equal(t, int64(1), counts["go"], "go was introduced once; re-tagging is not a new introduction")
	assert.Equal(t, int64(1), counts["rust"], "removal never decrements")
	assert.Equal(t, int64(1), counts["zig"])

	// A second question with go charges it again.
	f.question(t, alice, "another", "go")
	tags, err = f.content.ListTags(ctx)
	require.NoError(t, err)
	for _, tv := range tags {
		counts[tv.Name] = tv.UsageCount
	}
	assert.Equal(t, int64(2), counts["go"])
}

func TestCommentUnderDeletedQuestionNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	q := f.question(t, alice, "doomed")
	cm, err := f.content.CreateComment(ctx, bob, domain.QuestionRef(q.ID), "useful remark")
	require.NoError(t, err)

	require.NoError(t, f.content.SoftDeleteQuestion(ctx, alice, q.ID))

	_, err = f.content.GetComment(ctx, bob, cm.ID, false)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCommentHasExactlyOneParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	q := f.question(t, alice, "threaded")
	top, err := f.content.CreateComment(ctx, alice, domain.QuestionRef(q.ID), "top")
	require.NoError(t, err)
	reply, err := f.content.CreateComment(ctx, alice, domain.CommentRef(top.ID), "reply")
	require.NoError(t, err)

	got, err := f.content.GetQuestion(ctx, nil, q.ID, false)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, got.Comments[0].Replies[0].ID)
}

func TestListByUserOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	mk := func(title string, at time.Time, upvotes int64) *domain.Question {
		t.Helper()
		q := &domain.Question{Title: title, Body: "b", Upvotes: upvotes}
		q.TouchCreate(alice.ID, at)
		require.NoError(t, f.store.Questions.Create(ctx, q))
		return q
	}

	old := mk("old low", f.now, 1)
	mid := mk("mid high", f.now.Add(time.Minute), 5)
	// Same creation time as mid but a higher id, lower score.
	tie := mk("tie newer id", f.now.Add(time.Minute), 3)

	titles := func(views []*QuestionView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	byScore, err := f.content.ListByUser(ctx, nil, alice.ID, SortByScore, false)
	require.NoError(t, err)
	assert.Equal(t, []string{mid.Title, tie.Title, old.Title}, titles(byScore))

	// Equal creation times fall back to descending id.
	byNewest, err := f.content.ListByUser(ctx, nil, alice.ID, SortByNewest, false)
	require.NoError(t, err)
	assert.Equal(t, []string{tie.Title, mid.Title, old.Title}, titles(byNewest))
}

func TestListByUserScoreTieBreaksOnID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	first := f.question(t, alice, "first asked")
	second := f.question(t, alice, "second asked")

	// Identical scores: the later (higher) id wins.
	byScore, err := f.content.ListByUser(ctx, nil, alice.ID, SortByScore, false)
	require.NoError(t, err)
	require.Len(t, byScore, 2)
	assert.Equal(t, second.ID, byScore[0].ID)
	assert.Equal(t, first.ID, byScore[1].ID)
}

func TestListCommentsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)
	mod := f.user(t, "mod", domain.RoleModerator)

	q := f.question(t, alice, "commented")
	older, err := f.content.CreateComment(ctx, bob, domain.QuestionRef(q.ID), "older")
	require.NoError(t, err)
	f.advance(time.Minute)
	newer, err := f.content.CreateComment(ctx, bob, domain.QuestionRef(q.ID), "newer")
	require.NoError(t, err)
	f.advance(time.Minute)
	gone, err := f.content.CreateComment(ctx, bob, domain.QuestionRef(q.ID), "gone")
	require.NoError(t, err)
	require.NoError(t, f.content.SoftDeleteComment(ctx, bob, gone.ID))

	list, err := f.content.ListCommentsByUser(ctx, nil, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	// Moderation view includes the deleted one, newest first.
	all, err := f.content.ListCommentsByUser(ctx, mod, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, gone.ID, all[0].ID)

	var nf *domain.NotFoundError
	_, err = f.content.ListCommentsByUser(ctx, nil, 9999, false)
	assert.ErrorAs(t, err, &nf)
}

func TestSearchOnlyPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", domain.RoleUser)

	kept := f.question(t, alice, "searchable widget")
	gone := f.question(t, alice, "searchable gadget")
	require.NoError(t, f.content.SoftDeleteQuestion(ctx, alice, gone.ID))

	found, err := f.content.SearchQuestions(ctx, nil, "searchable")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kept.ID, found[0].ID)
}
