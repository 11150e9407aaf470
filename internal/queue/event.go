// Package queue defines message payloads exchanged over the message broker
// and the consumer that delivers them.
package queue

// Mail kinds carried in MailRequestedEvent.Kind.
const (
	MailVerifyEmail   = "verify_email"
	MailPasswordReset = "password_reset"
)

// MailRequestedEvent asks the mail worker to send a transactional message.
// Link is the fully built frontend URL containing Token.
type MailRequestedEvent struct {
	Kind        string `json:"kind"`
	UserID      string `json:"user_id"`
	To          string `json:"to"`
	Name        string `json:"name"`
	Token       string `json:"token"`
	Link        string `json:"link"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	RequestedAt string `json:"requested_at"`
}
