package audit

import (
	"context"

	"callhistory/internal/auth"
	"callhistory/internal/calllog"
)

// Recorder appends one audit event per call log outcome. It implements
// calllog.Recorder. Actor fields come from the submitting request's identity.
type Recorder struct {
	Audit *Service
}

func (r Recorder) RecordOutcome(ctx context.Context, e calllog.OutcomeEvent) error {
	if r.Audit == nil {
		return nil
	}
	outcome := string(e.Kind)
	if outcome == "" {
		outcome = OutcomeOK
	}
	ev := Event{
		Type:       EventTypeCallLogRequest,
		RequestID:  e.RequestID,
		Method:     e.Method,
		Outcome:    outcome,
		Entries:    e.Entries,
		Message:    e.Message,
		DurationMS: e.Finished.Sub(e.Started).Milliseconds(),
		CreatedAt:  e.Finished.UTC(),
	}
	if id, ok := auth.IdentityFrom(ctx); ok {
		ev.DeviceID, ev.ActorUserID, ev.ActorRole = id.DeviceID, id.UserID, id.Role
	}
	return r.Audit.Append(ctx, ev)
}
