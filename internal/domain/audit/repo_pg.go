package audit

import (
	"context"

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

const auditCols = `id, data_model, event_type, event_datetime, facility_code,
	source_id, source_name, test, payload, received_at`

func (r *repoPG) Append(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (
			id, data_model, event_type, event_datetime, facility_code,
			source_id, source_name, test, payload, received_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.DataModel, rec.EventType, rec.EventDateTime, rec.FacilityCode,
		rec.SourceID, rec.SourceName, rec.Test, rec.Payload, rec.ReceivedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+auditCols+` FROM audit_events WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, facilityCode string, limit, offset int) ([]*Record, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditCols+` FROM audit_events
		WHERE ($1 = '' OR facility_code = $1)
		ORDER BY received_at DESC
		LIMIT $2 OFFSET $3`,
		facilityCode, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_events WHERE ($1 = '' OR facility_code = $1)`,
		facilityCode,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(
		&rec.ID, &rec.DataModel, &rec.EventType, &rec.EventDateTime, &rec.FacilityCode,
		&rec.SourceID, &rec.SourceName, &rec.Test, &rec.Payload, &rec.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
