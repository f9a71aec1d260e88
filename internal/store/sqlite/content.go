package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reddot/internal/domain"
	"reddot/internal/store"
	"reddot/internal/utils"
)

type questions struct{ d *DB }

const questionCols = `id, owner_id, status, title, body, tags, upvotes, downvotes, closed_at, created_at, updated_at`

func (s *questions) Create(ctx context.Context, q *domain.Question) error {
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	res, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO questions (owner_id, status, title, body, tags, upvotes, downvotes, closed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.OwnerID, string(q.Status), q.Title, q.Body, string(tags),
		q.Upvotes, q.Downvotes, stampPtr(q.ClosedAt), stamp(q.CreatedAt), stamp(q.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	q.ID, err = res.LastInsertId()
	return err
}

func (s *questions) Get(ctx context.Context, id int64) (*domain.Question, error) {
	row := s.d.q(ctx).QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

func (s *questions) ByOwner(ctx context.Context, ownerID int64) ([]*domain.Question, error) {
	return s.list(ctx, `SELECT `+questionCols+` FROM questions WHERE owner_id = ?`, ownerID)
}

func (s *questions) All(ctx context.Context) ([]*domain.Question, error) {
	return s.list(ctx, `SELECT `+questionCols+` FROM questions`)
}

func (s *questions) Search(ctx context.Context, keyword string) ([]*domain.Question, error) {
	pattern := "%" + keyword + "%"
	return s.list(ctx, `
		SELECT `+questionCols+` FROM questions
		WHERE title LIKE ? COLLATE NOCASE OR body LIKE ? COLLATE NOCASE`,
		pattern, pattern)
}

func (s *questions) Update(ctx context.Context, q *domain.Question) error {
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	res, err := s.d.q(ctx).ExecContext(ctx, `
		UPDATE questions
		SET status = ?, title = ?, body = ?, tags = ?, upvotes = ?, downvotes = ?,
		    closed_at = ?, updated_at = ?
		WHERE id = ?`,
		string(q.Status), q.Title, q.Body, string(tags), q.Upvotes, q.Downvotes,
		stampPtr(q.ClosedAt), stamp(q.UpdatedAt), q.ID)
	if err != nil {
		return fmt.Errorf("update question %d: %w", q.ID, err)
	}
	return requireRow(res)
}

func (s *questions) list(ctx context.Context, query string, args ...any) ([]*domain.Question, error) {
	rows, err := s.d.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer utils.Close(rows)

	var out []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(r rowScanner) (*domain.Question, error) {
	var (
		q                              domain.Question
		status, tags, created, updated string
		closed                         sql.NullString
	)
	err := r.Scan(&q.ID, &q.OwnerID, &status, &q.Title, &q.Body, &tags,
		&q.Upvotes, &q.Downvotes, &closed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	q.Status = domain.Status(status)
	if q.ClosedAt, err = parseStampPtr(closed); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = parseStamp(created); err != nil {
		return nil, err
	}
	if q.UpdatedAt, err = parseStamp(updated); err != nil {
		return nil, err
	}
	return &q, nil
}

type comments struct{ d *DB }

const commentCols = `id, owner_id, status, body, parent_question_id, parent_comment_id, upvotes, downvotes, created_at, updated_at`

func (s *comments) Create(ctx context.Context, c *domain.Comment) error {
	res, err := s.d.q(ctx).ExecContext(ctx, `
		INSERT INTO comments (owner_id, status, body, parent_question_id, parent_comment_id, upvotes, downvotes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.OwnerID, string(c.Status), c.Text, c.ParentQuestionID, c.ParentCommentID,
		c.Upvotes, c.Downvotes, stamp(c.CreatedAt), stamp(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *comments) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	row := s.d.q(ctx).QueryRowContext(ctx,
		`SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

func (s *comments) ByQuestion(ctx context.Context, questionID int64) ([]*domain.Comment, error) {
	return s.list(ctx, `SELECT `+commentCols+` FROM comments WHERE parent_question_id = ?`, questionID)
}

func (s *comments) ByParentComment(ctx context.Context, commentID int64) ([]*domain.Comment, error) {
	return s.list(ctx, `SELECT `+commentCols+` FROM comments WHERE parent_comment_id = ?`, commentID)
}

func (s *comments) ByOwner(ctx context.Context, ownerID int64) ([]*domain.Comment, error) {
	return s.list(ctx, `SELECT `+commentCols+` FROM comments WHERE owner_id = ?`, ownerID)
}

func (s *comments) Update(ctx context.Context, c *domain.Comment) error {
	res, err := s.d.q(ctx).ExecContext(ctx, `
		UPDATE comments
		SET status = ?, body = ?, upvotes = ?, downvotes = ?, updated_at = ?
		WHERE id = ?`,
		string(c.Status), c.Text, c.Upvotes, c.Downvotes, stamp(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update comment %d: %w", c.ID, err)
	}
	return requireRow(res)
}

func (s *comments) list(ctx context.Context, query string, args ...any) ([]*domain.Comment, error) {
	rows, err := s.d.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer utils.Close(rows)

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(r rowScanner) (*domain.Comment, error) {
	var (
		c                        domain.Comment
		status, created, updated string
		parentQ, parentC         sql.NullInt64
	)
	err := r.Scan(&c.ID, &c.OwnerID, &status, &c.Text, &parentQ, &parentC,
		&c.Upvotes, &c.Downvotes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	c.Status = domain.Status(status)
	if parentQ.Valid {
		c.ParentQuestionID = &parentQ.Int64
	}
	if parentC.Valid {
		c.ParentCommentID = &parentC.Int64
	}
	if c.CreatedAt, err = parseStamp(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseStamp(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

type tags struct{ d *DB }

func (s *tags) ByName(ctx context.Context, name string) (*domain.Tag, error) {
	var (
		t       domain.Tag
		created string
	)
	err := s.d.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, usage_count, created_at FROM tags WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.UsageCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %q: %w", name, err)
	}
	if t.CreatedAt, err = parseStamp(created); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *tags) Create(ctx context.Context, t *domain.Tag) error {
	res, err := s.d.q(ctx).ExecContext(ctx,
		`INSERT INTO tags (name, usage_count, created_at) VALUES (?, ?, ?)`,
		t.Name, t.UsageCount, stamp(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert tag %q: %w", t.Name, err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *tags) Update(ctx context.Context, t *domain.Tag) error {
	res, err := s.d.q(ctx).ExecContext(ctx,
		`UPDATE tags SET usage_count = ? WHERE id = ?`, t.UsageCount, t.ID)
	if err != nil {
		return fmt.Errorf("update tag %d: %w", t.ID, err)
	}
	return requireRow(res)
}

func (s *tags) All(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.d.q(ctx).QueryContext(ctx,
		`SELECT id, name, usage_count, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer utils.Close(rows)

	var out []*domain.Tag
	for rows.Next() {
		var (
			t       domain.Tag
			created string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.UsageCount, &created); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if t.CreatedAt, err = parseStamp(created); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
