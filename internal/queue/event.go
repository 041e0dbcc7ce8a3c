// Package queue carries account lifecycle events over RabbitMQ: a publisher
// used by the session manager and an audit consumer that appends them to a
// log file.
package queue

// Event types published on the account queue.
const (
	AccountCreated   = "account.created"
	SessionStarted   = "session.started"
	SessionRefreshed = "session.refreshed"
	SessionEnded     = "session.ended"
)

// AccountEvent is published after a successful signup, login, refresh or
// logout.  It never carries a token or a password digest, only the jti.
type AccountEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	JTI        string `json:"jti,omitempty"`
	RememberMe bool   `json:"remember_me,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
