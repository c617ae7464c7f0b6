package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const alertCols = `id, type, category, severity, message, patient_id, facility_code,
	triggered_at, acknowledged, acknowledged_by, acknowledged_at,
	action_required, recommendations, related_data, created_at`

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts (
			id, type, category, severity, message, patient_id, facility_code,
			triggered_at, acknowledged, action_required, recommendations, related_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.Type, a.Category, a.Severity, a.Message, a.PatientID, a.FacilityCode,
		a.TriggeredAt, a.Acknowledged, a.ActionRequired, a.Recommendations, a.RelatedData,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertCols+` FROM alerts WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, facilityCode, patientID string, limit, offset int) ([]*Alert, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertCols+` FROM alerts
		WHERE ($1 = '' OR facility_code = $1)
		  AND ($2 = '' OR patient_id = $2)
		ORDER BY triggered_at DESC
		LIMIT $3 OFFSET $4`,
		facilityCode, patientID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE ($1 = '' OR facility_code = $1)
		  AND ($2 = '' OR patient_id = $2)`,
		facilityCode, patientID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *repoPG) Acknowledge(ctx context.Context, id uuid.UUID, who string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = $3
		WHERE id = $1 AND acknowledged = FALSE`,
		id, who, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already acknowledged; distinguish for the caller.
		var acked bool
		err := r.pool.QueryRow(ctx, `SELECT acknowledged FROM alerts WHERE id = $1`, id).Scan(&acked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrAlreadyAcknowledged
	}
	return nil
}

func scanAlert(row pgx.Row) (*Alert, error) {
	a := &Alert{}
	err := row.Scan(
		&a.ID, &a.Type, &a.Category, &a.Severity, &a.Message, &a.PatientID, &a.FacilityCode,
		&a.TriggeredAt, &a.Acknowledged, &a.AcknowledgedBy, &a.AcknowledgedAt,
		&a.ActionRequired, &a.Recommendations, &a.RelatedData, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
