// Package service implements the domain operations: the content graph,
// vote scoring, tag accounting, bookmarks, security tokens and the
// account lifecycle. Every operation takes the acting user explicitly;
// nothing reads identity from ambient state.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/store"
)

// ContentService owns questions, comments, tags, votes and bookmarks.
type ContentService struct {
	store  *store.Store
	logger logger.Logger
	now    func() time.Time
}

func NewContent(st *store.Store, log logger.Logger, now func() time.Time) *ContentService {
	if now == nil {
		now = time.Now
	}
	return &ContentService{store: st, logger: log, now: now}
}

// QuestionInput carries the caller-supplied fields of a question.
type QuestionInput struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// validateQuestionInput collects every violation before failing.
func validateQuestionInput(in QuestionInput) ([]string, []string) {
	var violations []string
	if in.Title == "" {
		violations = append(violations, "title must not be empty")
	}
	if in.Body == "" {
		violations = append(violations, "body must not be empty")
	}
	for _, raw := range in.Tags {
		if domain.NormalizeTagName(raw) == "" {
			violations = append(violations, "tag names must not be empty")
			break
		}
	}
	tags := domain.NormalizeTagSet(in.Tags)
	if len(tags) > domain.MaxTagsPerQuestion {
		violations = append(violations, fmt.Sprintf("a question can have at most %d tags", domain.MaxTagsPerQuestion))
	}
	return tags, violations
}

// CreateQuestion validates the input, charges tag usage for every tag
// in the set and persists the question. Identity and timestamps are
// assigned here, never by the caller.
func (s *ContentService) CreateQuestion(ctx context.Context, actor *domain.User, in QuestionInput) (*QuestionView, error) {
	if actor == nil {
		return nil, &domain.PermissionError{Action: "create a question"}
	}
	tags, violations := validateQuestionInput(in)
	if err := domain.Violated(violations); err != nil {
		return nil, err
	}

	q := &domain.Question{Title: in.Title, Body: in.Body, Tags: tags}
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		for _, name := range tags {
			if err := s.chargeTagUsage(ctx, name); err != nil {
				return err
			}
		}
		q.TouchCreate(actor.ID, s.now())
		return s.store.Questions.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("question created",
		logger.Int64("question_id", q.ID),
		logger.Int64("owner_id", actor.ID))
	return s.questionView(ctx, actor, q), nil
}

// EditQuestion updates title, body and tag set. Newly introduced tags
// are charged; removed tags keep their usage count.
func (s *ContentService) EditQuestion(ctx context.Context, actor *domain.User, id int64, in QuestionInput) (*QuestionView, error) {
	tags, violations := validateQuestionInput(in)
	if err := domain.Violated(violations); err != nil {
		return nil, err
	}

	var q *domain.Question
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		q, err = s.visibleQuestion(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanMutate(actor, q) {
			return &domain.PermissionError{Action: "edit this question"}
		}
		if q.Closed() && !actor.IsSuperUser() {
			return &domain.PermissionError{Action: "edit a closed question"}
		}

		for _, name := range tags {
			if q.HasTag(name) {
				continue
			}
			if err := s.chargeTagUsage(ctx, name); err != nil {
				return err
			}
		}

		q.Title = in.Title
		q.Body = in.Body
		q.Tags = tags
		q.TouchUpdate(s.now())
		return s.store.Questions.Update(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return s.questionView(ctx, actor, q), nil
}

// SoftDeleteQuestion marks the question deleted. The row and its
// comments stay in place; default-visibility queries stop returning
// them.
func (s *ContentService) SoftDeleteQuestion(ctx context.Context, actor *domain.User, id int64) error {
	return s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		q, err := s.visibleQuestion(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanDelete(actor, q) {
			return &domain.PermissionError{Action: "delete this question"}
		}
		q.SoftDelete(s.now())
		if err := s.store.Questions.Update(ctx, q); err != nil {
			return err
		}
		s.logger.Info("question soft-deleted",
			logger.Int64("question_id", id),
			logger.Int64("actor_id", actor.ID))
		return nil
	})
}

// GetQuestion returns one question with its comment tree.
func (s *ContentService) GetQuestion(ctx context.Context, actor *domain.User, id int64, includeHidden bool) (*QuestionView, error) {
	q, err := s.store.Questions.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "question", id)
	}
	if !domain.Visible(q, includeHidden) {
		return nil, domain.NotFound("question", id)
	}
	view := s.questionView(ctx, actor, q)
	view.Comments, err = s.commentTree(ctx, actor, q.ID, includeHidden)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListQuestions returns the visible questions, newest first.
func (s *ContentService) ListQuestions(ctx context.Context, actor *domain.User, includeHidden bool) ([]*QuestionView, error) {
	all, err := s.store.Questions.All(ctx)
	if err != nil {
		return nil, err
	}
	visible := domain.FilterVisible(all, includeHidden)
	sortQuestions(visible, SortByNewest)
	return s.questionViews(ctx, actor, visible), nil
}

// ListByUser returns one user's questions ordered by the sort key.
func (s *ContentService) ListByUser(ctx context.Context, actor *domain.User, userID int64, key SortKey, includeHidden bool) ([]*QuestionView, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, mapStoreErr(err, "user", userID)
	}
	owned, err := s.store.Questions.ByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := domain.FilterVisible(owned, includeHidden)
	sortQuestions(visible, key)
	return s.questionViews(ctx, actor, visible), nil
}

// SearchQuestions matches a keyword against public titles and bodies.
func (s *ContentService) SearchQuestions(ctx context.Context, actor *domain.User, keyword string) ([]*QuestionView, error) {
	found, err := s.store.Questions.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	visible := domain.FilterVisible(found, false)
	sortQuestions(visible, SortByScore)
	return s.questionViews(ctx, actor, visible), nil
}

// ListTags returns every known tag with its usage count.
func (s *ContentService) ListTags(ctx context.Context) ([]*TagView, error) {
	all, err := s.store.Tags.All(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*TagView, 0, len(all))
	for _, t := range all {
		views = append(views, &TagView{Name: t.Name, UsageCount: t.UsageCount})
	}
	return views, nil
}

func (s *ContentService) questionViews(ctx context.Context, actor *domain.User, questions []*domain.Question) []*QuestionView {
	views := make([]*QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, s.questionView(ctx, actor, q))
	}
	return views
}

// chargeTagUsage looks the tag up by normalized name, creating it on
// first use, and bumps the lifetime-introduction counter. The counter
// only ever grows; removing a tag from a question does not undo it.
func (s *ContentService) chargeTagUsage(ctx context.Context, name string) error {
	tag, err := s.store.Tags.ByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		tag = &domain.Tag{Name: name, UsageCount: 1, CreatedAt: s.now()}
		return s.store.Tags.Create(ctx, tag)
	case err != nil:
		return err
	}
	tag.UsageCount++
	return s.store.Tags.Update(ctx, tag)
}

// EnsureTag is the lookup-or-create used where a tag must exist without
// charging usage.
func (s *ContentService) EnsureTag(ctx context.Context, raw string) (*domain.Tag, error) {
	name := domain.NormalizeTagName(raw)
	if name == "" {
		return nil, domain.Violated([]string{"tag names must not be empty"})
	}
	tag, err := s.store.Tags.ByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		tag = &domain.Tag{Name: name, CreatedAt: s.now()}
		if err := s.store.Tags.Create(ctx, tag); err != nil {
			return nil, err
		}
		return tag, nil
	case err != nil:
		return nil, err
	}
	return tag, nil
}

// visibleQuestion fetches with default visibility: hidden and deleted
// rows report as not found so mutation paths never confirm their
// existence to actors who cannot see them.
func (s *ContentService) visibleQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	q, err := s.store.Questions.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "question", id)
	}
	if !domain.Visible(q, false) {
		return nil, domain.NotFound("question", id)
	}
	return q, nil
}

func mapStoreErr(err error, resource string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.NotFound(resource, id)
	}
	return err
}
