package domain

import "time"

// Status is the moderation state of a piece of content.
type Status string

const (
	// StatusPublic content is returned by default-visibility queries.
	StatusPublic Status = "PUBLIC"

	// StatusHidden content is withheld from default queries but not deleted.
	StatusHidden Status = "HIDDEN"

	// StatusDeleted marks content as soft-deleted.
	// The row is kept; only includeHidden queries may see it.
	StatusDeleted Status = "DELETED"
)

// ContentKind discriminates vote and bookmark targets.
type ContentKind string

const (
	KindQuestion ContentKind = "question"
	KindComment  ContentKind = "comment"
)

// ContentRef identifies a question or comment by kind and id.
// Votes and bookmarks reference content this way instead of holding
// the entity itself, so the ownership graph stays acyclic.
type ContentRef struct {
	Kind ContentKind
	ID   int64
}

func QuestionRef(id int64) ContentRef { return ContentRef{Kind: KindQuestion, ID: id} }
func CommentRef(id int64) ContentRef  { return ContentRef{Kind: KindComment, ID: id} }

// Content is the shared base of Question and Comment.
//
// It is embedded as a value, not inherited. Identity is assigned by the
// store on first save and is never client-supplied. Timestamps are set
// only through TouchCreate/TouchUpdate, called by the service layer.
type Content struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, 0 until first save.
	ID int64

	// OwnerID references the authoring user. Immutable after creation.
	OwnerID int64

	// ─────────────────────────────
	// Moderation & lifecycle
	// ─────────────────────────────

	Status Status

	// CreatedAt is set once by TouchCreate.
	CreatedAt time.Time

	// UpdatedAt is bumped by TouchUpdate on every mutation.
	UpdatedAt time.Time
}

// TouchCreate initializes lifecycle fields on first save.
func (c *Content) TouchCreate(ownerID int64, now time.Time) {
	c.OwnerID = ownerID
	c.Status = StatusPublic
	c.CreatedAt = now
	c.UpdatedAt = now
}

// TouchUpdate bumps the mutation timestamp.
func (c *Content) TouchUpdate(now time.Time) {
	c.UpdatedAt = now
}

// SoftDelete marks the content deleted without removing it.
func (c *Content) SoftDelete(now time.Time) {
	c.Status = StatusDeleted
	c.UpdatedAt = now
}

func (c *Content) ContentStatus() Status { return c.Status }
func (c *Content) Owner() int64          { return c.OwnerID }

// Viewable is the capability the visibility policy needs from an item.
type Viewable interface {
	ContentStatus() Status
}

// Visible reports whether an item may be returned to a caller.
// Default visibility admits only PUBLIC content; includeHidden admits
// everything that was persisted, regardless of status.
func Visible(v Viewable, includeHidden bool) bool {
	if v == nil {
		return false
	}
	if includeHidden {
		return true
	}
	return v.ContentStatus() == StatusPublic
}

// FilterVisible applies the visibility policy to a collection.
// Nested associations go through the same filter; callers never
// re-implement the predicate.
func FilterVisible[T Viewable](items []T, includeHidden bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Visible(it, includeHidden) {
			out = append(out, it)
		}
	}
	return out
}
