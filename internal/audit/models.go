package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - device_id identifies whose call history was read.
// - actor and ip capture are best-effort; do not block request delivery on audit failures.

type Event struct {
	ID       string `json:"id" db:"id"`
	DeviceID string `json:"device_id" db:"device_id"`

	// Type indicates the category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	// RequestID is the call log request the event belongs to. Empty for
	// requests rejected before admission.
	RequestID string `json:"request_id,omitempty" db:"request_id"`
	Method    string `json:"method,omitempty" db:"method"`

	// Outcome is "ok" or an error kind such as ALREADY_RUNNING.
	Outcome string `json:"outcome,omitempty" db:"outcome"`
	Entries int    `json:"entries" db:"entries"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallLogRequest     EventType = "calllog_request"
	EventTypePermissionDecision EventType = "permission_decision"
)

// OutcomeOK marks a request that delivered entries.
const OutcomeOK = "ok"
