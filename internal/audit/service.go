package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Service logs internal audit information. Audit is owner/operator-only and
// best-effort: callers log append failures and carry on.
type Service struct {
	repo     Repository
	deviceID string
	clock    func() time.Time
}

// NewService returns a service that stamps deviceID on events that carry none.
func NewService(repo Repository, deviceID string) *Service {
	return &Service{repo: repo, deviceID: deviceID, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.DeviceID == "" {
		e.DeviceID = s.deviceID
	}
	if e.DeviceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// List returns the most recent events first.
func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx, limit)
}

// LogPermissionDecision records an answer given to a pending permission prompt.
func (s *Service) LogPermissionDecision(ctx context.Context, deviceID, actorUserID, actorRole, ip, requestID string, granted bool) error {
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	return s.Append(ctx, Event{
		DeviceID:    deviceID,
		Type:        EventTypePermissionDecision,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		RequestID:   requestID,
		Outcome:     outcome,
		Message:     "permission " + outcome,
	})
}
