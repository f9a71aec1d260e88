package domain

// Comment is a threaded reply. It attaches either directly under a
// question or as a reply to another comment, never both, never neither.
// The parent link is fixed at creation; re-parenting is not supported.
type Comment struct {
	Content

	Text string

	// Exactly one of the two parent ids is set.
	ParentQuestionID *int64
	ParentCommentID  *int64

	Upvotes   int64
	Downvotes int64
}

// Score is upvotes minus downvotes.
func (c *Comment) Score() int64 { return c.Upvotes - c.Downvotes }

// Parent returns the single parent reference.
func (c *Comment) Parent() ContentRef {
	if c.ParentCommentID != nil {
		return CommentRef(*c.ParentCommentID)
	}
	if c.ParentQuestionID != nil {
		return QuestionRef(*c.ParentQuestionID)
	}
	return ContentRef{}
}

// IsReply reports whether the comment answers another comment rather
// than sitting directly under a question.
func (c *Comment) IsReply() bool { return c.ParentCommentID != nil }
