package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sink records received events. Record must succeed before the HTTP response
// is sent; a failure is fatal for the request since an unaudited clinical
// event is an integrity violation.
type Sink struct {
	repo Repository
}

func NewSink(repo Repository) *Sink {
	return &Sink{repo: repo}
}

func (s *Sink) Record(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (s *Sink) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Sink) List(ctx context.Context, facilityCode string, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, facilityCode, limit, offset)
}
