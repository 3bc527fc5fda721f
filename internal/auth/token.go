package auth

// LocalToken returns the session marker for userID. It is derived from the ID
// alone and proves nothing; it only tells the caller a session exists.
func LocalToken(userID string) string {
	return "local_token_" + userID
}
