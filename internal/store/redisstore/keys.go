package redisstore

import "fmt"

const (
	// KeyPrefixToken is the prefix for security token hashes.
	KeyPrefixToken = "reddot:token:"
	// KeyPrefixDeleteRequest is the prefix for delete-request markers.
	KeyPrefixDeleteRequest = "reddot:delete-request:"
)

// TokenKey returns the Redis key for a token, namespaced by kind so the
// same opaque string can never cross kinds.
func TokenKey(kind, token string) string {
	return KeyPrefixToken + kind + ":" + token
}

// DeleteRequestKey returns the Redis key for a user's deletion marker.
func DeleteRequestKey(userID int64) string {
	return fmt.Sprintf("%s%d", KeyPrefixDeleteRequest, userID)
}
