package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reddot/internal/auth"
	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/notify"
	"reddot/internal/store"
	"reddot/internal/store/memory"
)

// fixture wires the full service stack against the in-memory store
// with a controllable clock and a recording mailer.
type fixture struct {
	store    *store.Store
	content  *ContentService
	tokens   *TokenService
	accounts *AccountService
	mail     *notify.Recorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		mail:  notify.NewRecorder(),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	log := logger.Nop()

	cat, err := notify.LoadCatalog("")
	require.NoError(t, err)
	mailer := notify.NewMailer(f.mail, cat, log, time.Second)

	f.content = NewContent(f.store, log, clock)
	f.tokens = NewTokens(f.store, DefaultTokenConfig(), log, clock)
	f.accounts = NewAccounts(f.store, f.tokens, auth.NewBcryptHasher(4), mailer, log, "https://reddot.test", clock)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) user(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:      username,
		Email:         username + "@example.com",
		Role:          role,
		Enabled:       true,
		EmailVerified: true,
		CreatedAt:     f.now,
		UpdatedAt:     f.now,
	}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) question(t *testing.T, owner *domain.User, title string, tags ...string) *QuestionView {
	t.Helper()
	q, err := f.content.CreateQuestion(context.Background(), owner, QuestionInput{
		Title: title,
		Body:  "body of " + title,
		Tags:  tags,
	})
	require.NoError(t, err)
	return q
}
