package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisible(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		includeHidden bool
		want          bool
	}{
		{name: "public default", status: StatusPublic, includeHidden: false, want: true},
		{name: "hidden default", status: StatusHidden, includeHidden: false, want: false},
		{name: "deleted default", status: StatusDeleted, includeHidden: false, want: false},
		{name: "public include hidden", status: StatusPublic, includeHidden: true, want: true},
		{name: "hidden include hidden", status: StatusHidden, includeHidden: true, want: true},
		{name: "deleted include hidden", status: StatusDeleted, includeHidden: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Question{Content: Content{Status: tt.status}}
			assert.Equal(t, tt.want, Visible(q, tt.includeHidden))
		})
	}
}

func TestFilterVisible_NestedCollections(t *testing.T) {
	comments := []*Comment{
		{Content: Content{ID: 1, Status: StatusPublic}},
		{Content: Content{ID: 2, Status: StatusDeleted}},
		{Content: Content{ID: 3, Status: StatusPublic}},
		{Content: Content{ID: 4, Status: StatusHidden}},
	}

	visible := FilterVisible(comments, false)
	require.Len(t, visible, 2)
	assert.Equal(t, int64(1), visible[0].ID)
	assert.Equal(t, int64(3), visible[1].ID)

	all := FilterVisible(comments, true)
	assert.Len(t, all, 4)
}

func TestContentLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var c Content
	c.TouchCreate(7, now)
	assert.Equal(t, int64(7), c.OwnerID)
	assert.Equal(t, StatusPublic, c.Status)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)

	later := now.Add(time.Hour)
	c.TouchUpdate(later)
	assert.Equal(t, now, c.CreatedAt, "create timestamp must not move")
	assert.Equal(t, later, c.UpdatedAt)

	c.SoftDelete(later.Add(time.Hour))
	assert.Equal(t, StatusDeleted, c.Status)
	assert.False(t, Visible(&c, false))
	assert.True(t, Visible(&c, true))
}

func TestScoreDerived(t *testing.T) {
	q := &Question{Upvotes: 10, Downvotes: 3}
	assert.Equal(t, int64(7), q.Score())

	c := &Comment{Upvotes: 1, Downvotes: 4}
	assert.Equal(t, int64(-3), c.Score())
}
