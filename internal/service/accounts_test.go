package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot/internal/domain"
)

func register(t *testing.T, f *fixture, username string) *RegisterResult {
	t.Helper()
	res, err := f.accounts.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse-42",
	})
	require.NoError(t, err)
	return res
}

// confirmToken pulls the token string out of the last recorded mail.
func confirmToken(t *testing.T, f *fixture) string {
	t.Helper()
	body := f.mail.Last().Body
	i := strings.LastIndex(body, "token=")
	require.GreaterOrEqual(t, i, 0, "mail body should carry a token link: %q", body)
	tok := body[i+len("token="):]
	if j := strings.IndexAny(tok, " \r\n"); j >= 0 {
		tok = tok[:j]
	}
	return tok
}

func TestRegisterDisabledUntilConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := register(t, f, "carol")
	assert.Empty(t, res.Warning)

	u, err := f.store.Users.Get(ctx, res.UserID)
	require.NoError(t, err)
	assert.False(t, u.Enabled)
	assert.False(t, u.EmailVerified)
	assert.Nil(t, u.Profile)

	// Cannot log in before confirming.
	_, err = f.accounts.Login(ctx, "carol", "correct-horse-42")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	confirmed, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)
	assert.True(t, confirmed.Enabled)
	assert.True(t, confirmed.EmailVerified)
	require.NotNil(t, confirmed.Profile)
	assert.Equal(t, "carol", confirmed.Profile.DisplayName)

	_, err = f.accounts.Login(ctx, "carol", "correct-horse-42")
	require.NoError(t, err)
}

func TestRegisterCollectsAllViolations(t *testing.T) {
	f := newFixture(t)
	register(t, f, "carol")

	_, err := f.accounts.Register(context.Background(), RegisterInput{
		Username: "carol", // taken
		Email:    "not-an-email",
		Password: "short",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3)
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mail.FailWith = errors.New("smtp down")

	res := register(t, f, "carol")
	assert.NotEmpty(t, res.Warning)

	// The account exists despite the failed mail.
	u, err := f.store.Users.Get(context.Background(), res.UserID)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
}

func TestConfirmTwiceReportsAlreadyConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	tok := confirmToken(t, f)

	_, err := f.accounts.ConfirmAccount(ctx, tok)
	require.NoError(t, err)

	_, err = f.accounts.ConfirmAccount(ctx, tok)
	assert.True(t, domain.IsConflict(err, domain.ConflictEmailConfirmed), "got %v", err)
}

func TestConfirmExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	tok := confirmToken(t, f)

	f.advance(25 * time.Hour)
	_, err := f.accounts.ConfirmAccount(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestConfirmUnknownToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.ConfirmAccount(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTokenConsumedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	tok := confirmToken(t, f)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.tokens.Consume(ctx, domain.TokenConfirm, tok)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrTokenUsed)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestResendConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")

	warning, err := f.accounts.ResendConfirmation(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Len(t, f.mail.Sent(), 2)

	// Both tokens stay valid independently; consume the latest one.
	_, err = f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	_, err = f.accounts.ResendConfirmation(ctx, "carol@example.com")
	assert.True(t, domain.IsConflict(err, domain.ConflictEmailConfirmed))

	_, err = f.accounts.ResendConfirmation(ctx, "nobody@example.com")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestEmailChangeFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	u, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	register(t, f, "dave")

	// Taken address conflicts.
	_, err = f.accounts.RequestEmailChange(ctx, u, "dave@example.com")
	assert.True(t, domain.IsConflict(err, domain.ConflictEmailExists))

	warning, err := f.accounts.RequestEmailChange(ctx, u, "carol+new@example.com")
	require.NoError(t, err)
	assert.Empty(t, warning)

	// The staged address is unverified until the token is consumed, and
	// re-requesting it reports the pending change.
	staged, err := f.store.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol+new@example.com", staged.Email)
	assert.False(t, staged.EmailVerified)

	_, err = f.accounts.RequestEmailChange(ctx, staged, "carol+new@example.com")
	assert.True(t, domain.IsConflict(err, domain.ConflictEmailPending))

	confirmed, err := f.accounts.ConfirmEmail(ctx, confirmToken(t, f))
	require.NoError(t, err)
	assert.True(t, confirmed.EmailVerified)
	assert.Equal(t, "carol+new@example.com", confirmed.Email)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	_, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	warning, err := f.accounts.RequestPasswordReset(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Empty(t, warning)
	tok := confirmToken(t, f)

	// Same password is rejected and leaves the token usable.
	_, err = f.accounts.ResetPassword(ctx, tok, "correct-horse-42")
	assert.True(t, domain.IsConflict(err, domain.ConflictSamePassword))

	warning, err = f.accounts.ResetPassword(ctx, tok, "new-horse-batteries")
	require.NoError(t, err)
	assert.Empty(t, warning)

	// Old password no longer works, new one does.
	_, err = f.accounts.Login(ctx, "carol", "correct-horse-42")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.accounts.Login(ctx, "carol", "new-horse-batteries")
	require.NoError(t, err)

	// The token is spent.
	_, err = f.accounts.ResetPassword(ctx, tok, "yet-another-pass")
	assert.ErrorIs(t, err, domain.ErrTokenUsed)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.RequestPasswordReset(context.Background(), "ghost@example.com")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	_, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	_, err = f.accounts.RequestPasswordReset(ctx, "carol@example.com")
	require.NoError(t, err)
	tok := confirmToken(t, f)

	f.advance(2 * time.Hour)
	_, err = f.accounts.ResetPassword(ctx, tok, "new-horse-batteries")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestDeletionQueueAndRevokeOnLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	u, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	warning, err := f.accounts.RequestDeletion(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, warning)

	_, err = f.accounts.RequestDeletion(ctx, u)
	assert.True(t, domain.IsConflict(err, domain.ConflictAlreadyQueued))

	// Logging back in revokes the request.
	logged, err := f.accounts.Login(ctx, "carol", "correct-horse-42")
	require.NoError(t, err)
	require.NotNil(t, logged.LastAccessAt)

	queued, err := f.store.Deletions.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, queued)

	// And it can be queued again afterwards.
	_, err = f.accounts.RequestDeletion(ctx, u)
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "carol")
	u, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	got, err := f.accounts.UpdateProfile(ctx, u, domain.Profile{
		DisplayName: "Carol D.",
		About:       "asks questions",
		Location:    "Lyon",
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol D.", got.Profile.DisplayName)

	loaded, err := f.accounts.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lyon", loaded.Profile.Location)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	register(t, f, "asker")
	asker, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)
	register(t, f, "voter")
	voter, err := f.accounts.ConfirmAccount(ctx, confirmToken(t, f))
	require.NoError(t, err)

	q, err := f.content.CreateQuestion(ctx, asker, QuestionInput{
		Title: "how to test without running",
		Body:  "asking for a friend",
		Tags:  []string{"testing", "go"},
	})
	require.NoError(t, err)

	cm, err := f.content.CreateComment(ctx, voter, domain.QuestionRef(q.ID), "read it twice")
	require.NoError(t, err)

	_, err = f.content.ApplyVote(ctx, voter, domain.QuestionRef(q.ID), domain.VoteUp)
	require.NoError(t, err)
	on, err := f.content.ToggleBookmark(ctx, voter, domain.CommentRef(cm.ID))
	require.NoError(t, err)
	assert.True(t, on)

	view, err := f.content.GetQuestion(ctx, voter, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Score)
	assert.True(t, view.Upvoted)
	require.Len(t, view.Comments, 1)
	assert.True(t, view.Comments[0].Bookmarked)

	require.NoError(t, f.content.SoftDeleteQuestion(ctx, asker, q.ID))
	_, err = f.content.GetQuestion(ctx, voter, q.ID, false)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
