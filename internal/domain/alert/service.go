package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetAlert(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAlerts(ctx context.Context, facilityCode, patientID string, limit, offset int) ([]*Alert, int, error) {
	return s.repo.List(ctx, facilityCode, patientID, limit, offset)
}

// Acknowledge records who acknowledged the alert and when. An alert can be
// acknowledged at most once; a second acknowledgement is rejected without
// touching the original acknowledger or timestamp.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, who string) (*Alert, error) {
	if who == "" {
		return nil, fmt.Errorf("acknowledged_by is required")
	}
	if err := s.repo.Acknowledge(ctx, id, who, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
