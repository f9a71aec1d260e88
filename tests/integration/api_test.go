package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot/internal/auth"
	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/mw"
	"reddot/internal/httpserver/routes"
	"reddot/internal/logger"
	"reddot/internal/notify"
	"reddot/internal/service"
	"reddot/internal/store/memory"
)

type env struct {
	srv  *httptest.Server
	mail *notify.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.Nop()
	st := memory.New()
	mail := notify.NewRecorder()

	cat, err := notify.LoadCatalog("")
	require.NoError(t, err)
	mailer := notify.NewMailer(mail, cat, log, time.Second)

	sessions := auth.NewSessions([]byte("integration-secret"), time.Hour, nil)
	tokens := service.NewTokens(st, service.DefaultTokenConfig(), log, nil)
	d := deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Store:     st,
		Content:   service.NewContent(st, log, nil),
		Accounts:  service.NewAccounts(st, tokens, auth.NewBcryptHasher(4), mailer, log, "https://reddot.test", nil),
		Sessions:  sessions,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(mw.Auth(d.Sessions, d.Store.Users, log))
	routes.RegisterAll(r, d)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, mail: mail}
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func (e *env) mailToken(t *testing.T) string {
	t.Helper()
	body := e.mail.Last().Body
	i := strings.LastIndex(body, "token=")
	require.GreaterOrEqual(t, i, 0)
	tok := body[i+len("token="):]
	if j := strings.IndexAny(tok, " \r\n"); j >= 0 {
		tok = tok[:j]
	}
	return tok
}

// signup registers, confirms and logs a user in, returning the session.
func (e *env) signup(t *testing.T, username string) string {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "integration-pass-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = e.do(t, http.MethodPost, "/auth/confirm-account", "", map[string]string{"token": e.mailToken(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "integration-pass-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestQuestionLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	asker := e.signup(t, "asker")
	voter := e.signup(t, "voter")

	// Anonymous mutation is rejected.
	resp, _ := e.do(t, http.MethodPost, "/questions", "", map[string]any{"title": "t", "body": "b"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := e.do(t, http.MethodPost, "/questions", asker, map[string]any{
		"title": "how to wire chi routes",
		"body":  "asking over http",
		"tags":  []string{"go", "http"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var q struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &q))

	// Vote and check the derived score in the response.
	resp, raw = e.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/vote", q.ID), voter, map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var counts struct {
		Score int64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(raw, &counts))
	assert.Equal(t, int64(1), counts.Score)

	resp, raw = e.do(t, http.MethodGet, fmt.Sprintf("/questions/%d", q.ID), voter, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Score   int64 `json:"score"`
		Upvoted bool  `json:"upvoted"`
	}
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, int64(1), view.Score)
	assert.True(t, view.Upvoted)

	// A stranger cannot delete it.
	resp, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/questions/%d", q.ID), voter, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner can, and the question then reads as missing.
	resp, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/questions/%d", q.ID), asker, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, fmt.Sprintf("/questions/%d", q.ID), voter, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentThreadOverHTTP(t *testing.T) {
	e := newEnv(t)
	user := e.signup(t, "threader")

	_, raw := e.do(t, http.MethodPost, "/questions", user, map[string]any{
		"title": "threads", "body": "b",
	})
	var q struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &q))

	resp, raw := e.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/comments", q.ID), user, map[string]string{"text": "top"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var cm struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &cm))

	resp, raw = e.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/replies", cm.ID), user, map[string]string{"text": "reply"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = e.do(t, http.MethodGet, fmt.Sprintf("/questions/%d", q.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Comments []struct {
			Text    string `json:"text"`
			Replies []struct {
				Text string `json:"text"`
			} `json:"replies"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Len(t, view.Comments, 1)
	require.Len(t, view.Comments[0].Replies, 1)
	assert.Equal(t, "reply", view.Comments[0].Replies[0].Text)
}

func TestErrorTaxonomyOverHTTP(t *testing.T) {
	e := newEnv(t)

	// Validation failures come back together.
	resp, raw := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "x",
		"email":    "nope",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.Violations, 3)

	// Unknown confirmation token.
	resp, _ = e.do(t, http.MethodPost, "/auth/confirm-account", "", map[string]string{"token": "bogus"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Double confirmation conflicts.
	e.signup(t, "doubleconfirm")
	resp, _ = e.do(t, http.MethodPost, "/auth/confirm-account", "", map[string]string{"token": e.mailToken(t)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bad credentials.
	resp, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "doubleconfirm", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
