package domain

// Owned is the capability the authorization policy needs from an item.
type Owned interface {
	Owner() int64
}

// CanMutate reports whether the actor may edit the item: the owner may,
// and so may admins and moderators. A nil actor (anonymous) may not.
// The policy only answers yes/no; callers translate a false result into
// a permission-denied error.
func CanMutate(actor *User, item Owned) bool {
	if actor == nil || item == nil {
		return false
	}
	if item.Owner() == actor.ID {
		return true
	}
	return actor.IsSuperUser()
}

// CanDelete reports whether the actor may soft-delete the item.
// Same rule as CanMutate, except a closed question is immutable through
// this path even for moderators.
func CanDelete(actor *User, item Owned) bool {
	if !CanMutate(actor, item) {
		return false
	}
	if q, ok := item.(*Question); ok && q.Closed() {
		return false
	}
	return true
}
