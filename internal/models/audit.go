package models

// Audit event kinds published to Kafka.
const (
	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"
	EventPasswordReset  = "password_reset"
	EventJobCompleted   = "job_completed"
)

// AuditEvent is the payload published for security-relevant actions
// and completed mosaic jobs.
type AuditEvent struct {
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	UserID    int64  `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
