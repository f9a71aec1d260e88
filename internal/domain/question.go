package domain

import "time"

// MaxTagsPerQuestion caps the tag set of a question.
const MaxTagsPerQuestion = 5

// Question is a top-level post. Comments attach underneath it.
type Question struct {
	Content

	Title string
	Body  string

	// Tags holds normalized tag names, unique, at most MaxTagsPerQuestion.
	Tags []string

	// Upvotes/Downvotes are aggregate counters maintained by the voting
	// service. Score is always derived from them, never stored.
	Upvotes   int64
	Downvotes int64

	// ClosedAt, once set, freezes the question: edits and deletes are
	// rejected even for moderators. Closing itself is a separate
	// privileged operation.
	ClosedAt *time.Time
}

// Score is upvotes minus downvotes.
func (q *Question) Score() int64 { return q.Upvotes - q.Downvotes }

// Closed reports whether the question has been closed.
func (q *Question) Closed() bool { return q.ClosedAt != nil }

// HasTag reports whether the normalized name is already attached.
func (q *Question) HasTag(name string) bool {
	for _, t := range q.Tags {
		if t == name {
			return true
		}
	}
	return false
}
