package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummary aggregates one call log result.
// Range spans the oldest and newest call; it is zero when there are no calls.
type CallsSummary struct {
	Range TimeRange `json:"range"`

	TotalCalls     int `json:"total_calls"`
	IncomingCalls  int `json:"incoming_calls"`
	OutgoingCalls  int `json:"outgoing_calls"`
	MissedCalls    int `json:"missed_calls"`
	VoicemailCalls int `json:"voicemail_calls"`
	RejectedCalls  int `json:"rejected_calls"`
	BlockedCalls   int `json:"blocked_calls"`
	OtherCalls     int `json:"other_calls"`

	TotalDurationSeconds   int64 `json:"total_duration_seconds"`
	AverageDurationSeconds int64 `json:"average_duration_seconds"`

	// KnownCallers counts calls matched to a directory contact.
	KnownCallers int            `json:"known_callers"`
	TopContacts  []ContactCount `json:"top_contacts"`
}

type ContactCount struct {
	Name                 string `json:"name"`
	Calls                int    `json:"calls"`
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
}
