package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanMutate(t *testing.T) {
	question := &Question{Content: Content{ID: 1, OwnerID: 10}}

	tests := []struct {
		name  string
		actor *User
		want  bool
	}{
		{name: "owner", actor: &User{ID: 10, Role: RoleUser}, want: true},
		{name: "admin", actor: &User{ID: 99, Role: RoleAdmin}, want: true},
		{name: "moderator", actor: &User{ID: 99, Role: RoleModerator}, want: true},
		{name: "unrelated user", actor: &User{ID: 99, Role: RoleUser}, want: false},
		{name: "anonymous", actor: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.actor, question))
		})
	}
}

func TestCanDelete_ClosedQuestion(t *testing.T) {
	closedAt := time.Now()
	closed := &Question{Content: Content{ID: 1, OwnerID: 10}, ClosedAt: &closedAt}
	open := &Question{Content: Content{ID: 2, OwnerID: 10}}

	owner := &User{ID: 10, Role: RoleUser}
	admin := &User{ID: 99, Role: RoleAdmin}

	assert.True(t, CanDelete(owner, open))
	assert.True(t, CanDelete(admin, open))

	// Closed questions are frozen for everyone through this path.
	assert.False(t, CanDelete(owner, closed))
	assert.False(t, CanDelete(admin, closed))
}

func TestCanDelete_Comment(t *testing.T) {
	comment := &Comment{Content: Content{ID: 5, OwnerID: 10}}

	assert.True(t, CanDelete(&User{ID: 10, Role: RoleUser}, comment))
	assert.True(t, CanDelete(&User{ID: 1, Role: RoleModerator}, comment))
	assert.False(t, CanDelete(&User{ID: 2, Role: RoleUser}, comment))
}
