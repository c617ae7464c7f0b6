package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no alert exists for the given id.
var ErrNotFound = errors.New("alert not found")

// ErrAlreadyAcknowledged is returned when an alert has already been
// acknowledged; the original acknowledgement is never overwritten.
var ErrAlreadyAcknowledged = errors.New("alert already acknowledged")

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	List(ctx context.Context, facilityCode, patientID string, limit, offset int) ([]*Alert, int, error)

	// Acknowledge marks the alert acknowledged by who at the given time.
	// It fails with ErrAlreadyAcknowledged when the alert was acknowledged
	// before, and ErrNotFound when the alert does not exist.
	Acknowledge(ctx context.Context, id uuid.UUID, who string, at time.Time) error
}
