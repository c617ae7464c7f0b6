package ingest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientStore {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) Upsert(ctx context.Context, p *PatientRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (
			facility_code, mrn, id_type, first_name, last_name, dob, sex, phone, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		ON CONFLICT (facility_code, mrn) DO UPDATE SET
			id_type=EXCLUDED.id_type, first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name, dob=EXCLUDED.dob, sex=EXCLUDED.sex,
			phone=EXCLUDED.phone, updated_at=NOW()`,
		p.FacilityCode, p.MRN, p.IDType, p.FirstName, p.LastName, p.DOB, p.Sex, p.Phone,
	)
	return err
}

type visitRepoPG struct {
	pool *pgxpool.Pool
}

func NewVisitRepo(pool *pgxpool.Pool) VisitStore {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) Create(ctx context.Context, v *VisitRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visits (
			facility_code, visit_number, patient_mrn, patient_class, visit_datetime,
			department, room, bed, attending_provider, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'active')
		ON CONFLICT (facility_code, visit_number) DO UPDATE SET
			patient_class=EXCLUDED.patient_class, visit_datetime=EXCLUDED.visit_datetime,
			department=EXCLUDED.department, room=EXCLUDED.room, bed=EXCLUDED.bed,
			attending_provider=EXCLUDED.attending_provider, updated_at=NOW()`,
		v.FacilityCode, v.VisitNumber, v.PatientMRN, v.PatientClass, v.VisitDateTime,
		v.Department, v.Room, v.Bed, v.AttendingProvider,
	)
	return err
}

func (r *visitRepoPG) Discharge(ctx context.Context, facilityCode, visitNumber string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET status='discharged', discharged_at=$3, updated_at=NOW()
		WHERE facility_code=$1 AND visit_number=$2`,
		facilityCode, visitNumber, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *visitRepoPG) UpdateLocation(ctx context.Context, facilityCode, visitNumber, department, room, bed string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET department=$3, room=$4, bed=$5, updated_at=NOW()
		WHERE facility_code=$1 AND visit_number=$2`,
		facilityCode, visitNumber, department, room, bed,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *visitRepoPG) Update(ctx context.Context, v *VisitRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET patient_class=$3, department=$4, room=$5, bed=$6,
			attending_provider=$7, updated_at=NOW()
		WHERE facility_code=$1 AND visit_number=$2`,
		v.FacilityCode, v.VisitNumber, v.PatientClass, v.Department, v.Room, v.Bed,
		v.AttendingProvider,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

type orderRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) OrderStore {
	return &orderRepoPG{pool: pool}
}

func (r *orderRepoPG) SaveOrder(ctx context.Context, o *OrderRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (
			facility_code, order_id, patient_mrn, transaction_datetime, provider,
			procedure_code, procedure_codeset, procedure_description, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (facility_code, order_id) DO UPDATE SET
			transaction_datetime=EXCLUDED.transaction_datetime, provider=EXCLUDED.provider,
			procedure_code=EXCLUDED.procedure_code, procedure_codeset=EXCLUDED.procedure_codeset,
			procedure_description=EXCLUDED.procedure_description, status=EXCLUDED.status,
			updated_at=NOW()`,
		o.FacilityCode, o.OrderID, o.PatientMRN, o.TransactionDateTime, o.Provider,
		o.ProcedureCode, o.ProcedureCodeset, o.ProcedureDescription, o.Status,
	)
	return err
}

func (r *orderRepoPG) SaveResults(ctx context.Context, results []*ResultRecord) error {
	for _, res := range results {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO order_results (
				facility_code, order_id, code, description, value, value_type,
				units, reference_range, abnormal_flag, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (facility_code, order_id, code) DO UPDATE SET
				description=EXCLUDED.description, value=EXCLUDED.value,
				value_type=EXCLUDED.value_type, units=EXCLUDED.units,
				reference_range=EXCLUDED.reference_range, abnormal_flag=EXCLUDED.abnormal_flag,
				status=EXCLUDED.status, updated_at=NOW()`,
			res.FacilityCode, res.OrderID, res.Code, res.Description, res.Value, res.ValueType,
			res.Units, res.ReferenceRange, res.AbnormalFlag, res.Status,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
