package memory

import (
	"context"
	"strings"

	"reddot/internal/domain"
	"reddot/internal/store"
)

type questions struct{ c *core }

func (s *questions) Create(_ context.Context, q *domain.Question) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.questionSeq++
	q.ID = s.c.questionSeq
	s.c.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (s *questions) Get(_ context.Context, id int64) (*domain.Question, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	q, ok := s.c.questions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (s *questions) ByOwner(_ context.Context, ownerID int64) ([]*domain.Question, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Question, 0)
	for _, q := range s.c.questions {
		if q.OwnerID == ownerID {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *questions) All(_ context.Context) ([]*domain.Question, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Question, 0, len(s.c.questions))
	for _, q := range s.c.questions {
		out = append(out, cloneQuestion(q))
	}
	return out, nil
}

func (s *questions) Search(_ context.Context, keyword string) ([]*domain.Question, error) {
	kw := strings.ToLower(keyword)
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Question, 0)
	for _, q := range s.c.questions {
		if strings.Contains(strings.ToLower(q.Title), kw) || strings.Contains(strings.ToLower(q.Body), kw) {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *questions) Update(_ context.Context, q *domain.Question) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.questions[q.ID]; !ok {
		return store.ErrNotFound
	}
	s.c.questions[q.ID] = cloneQuestion(q)
	return nil
}

type comments struct{ c *core }

func (s *comments) Create(_ context.Context, cm *domain.Comment) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.commentSeq++
	cm.ID = s.c.commentSeq
	s.c.comments[cm.ID] = cloneComment(cm)
	return nil
}

func (s *comments) Get(_ context.Context, id int64) (*domain.Comment, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	cm, ok := s.c.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneComment(cm), nil
}

func (s *comments) ByQuestion(_ context.Context, questionID int64) ([]*domain.Comment, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Comment, 0)
	for _, cm := range s.c.comments {
		if cm.ParentQuestionID != nil && *cm.ParentQuestionID == questionID {
			out = append(out, cloneComment(cm))
		}
	}
	return out, nil
}

func (s *comments) ByParentComment(_ context.Context, commentID int64) ([]*domain.Comment, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Comment, 0)
	for _, cm := range s.c.comments {
		if cm.ParentCommentID != nil && *cm.ParentCommentID == commentID {
			out = append(out, cloneComment(cm))
		}
	}
	return out, nil
}

func (s *comments) ByOwner(_ context.Context, ownerID int64) ([]*domain.Comment, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Comment, 0)
	for _, cm := range s.c.comments {
		if cm.OwnerID == ownerID {
			out = append(out, cloneComment(cm))
		}
	}
	return out, nil
}

func (s *comments) Update(_ context.Context, cm *domain.Comment) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.comments[cm.ID]; !ok {
		return store.ErrNotFound
	}
	s.c.comments[cm.ID] = cloneComment(cm)
	return nil
}

type tags struct{ c *core }

func (s *tags) ByName(_ context.Context, name string) (*domain.Tag, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	t, ok := s.c.tags[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *tags) Create(_ context.Context, t *domain.Tag) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.tagSeq++
	t.ID = s.c.tagSeq
	cp := *t
	s.c.tags[t.Name] = &cp
	return nil
}

func (s *tags) Update(_ context.Context, t *domain.Tag) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.tags[t.Name]; !ok {
		return store.ErrNotFound
	}
	cp := *t
	s.c.tags[t.Name] = &cp
	return nil
}

func (s *tags) All(_ context.Context) ([]*domain.Tag, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	out := make([]*domain.Tag, 0, len(s.c.tags))
	for _, t := range s.c.tags {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}
