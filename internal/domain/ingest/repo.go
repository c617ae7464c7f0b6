package ingest

import (
	"context"
	"errors"
	"time"
)

// ErrVisitNotFound is returned when a visit-scoped operation targets a visit
// number the store has never seen. Discharge handling treats it as a handled
// condition, not a failure.
var ErrVisitNotFound = errors.New("visit not found")

// PatientRecord is the persisted slice of patient demographics, keyed by the
// external identifier so redelivered events upsert instead of duplicating.
type PatientRecord struct {
	FacilityCode string
	MRN          string
	IDType       string
	FirstName    string
	LastName     string
	DOB          time.Time
	Sex          string
	Phone        string
	UpdatedAt    time.Time
}

// VisitRecord is the persisted state of one visit, keyed by facility and
// visit number.
type VisitRecord struct {
	FacilityCode      string
	VisitNumber       string
	PatientMRN        string
	PatientClass      string
	VisitDateTime     time.Time
	Department        string
	Room              string
	Bed               string
	AttendingProvider string
	Status            string
	DischargedAt      *time.Time
}

// OrderRecord is the persisted state of one order, keyed by facility and
// order id.
type OrderRecord struct {
	FacilityCode         string
	OrderID              string
	PatientMRN           string
	TransactionDateTime  *time.Time
	Provider             string
	ProcedureCode        string
	ProcedureCodeset     string
	ProcedureDescription string
	Status               string
}

// ResultRecord is one persisted lab result belonging to an order.
type ResultRecord struct {
	FacilityCode   string
	OrderID        string
	Code           string
	Description    string
	Value          string
	ValueType      string
	Units          string
	ReferenceRange string
	AbnormalFlag   string
	Status         string
}

// PatientStore upserts patient demographics idempotently by external
// identifier.
type PatientStore interface {
	Upsert(ctx context.Context, p *PatientRecord) error
}

// VisitStore manages visit lifecycle state keyed by visit number.
type VisitStore interface {
	Create(ctx context.Context, v *VisitRecord) error
	Discharge(ctx context.Context, facilityCode, visitNumber string, at time.Time) error
	UpdateLocation(ctx context.Context, facilityCode, visitNumber, department, room, bed string) error
	Update(ctx context.Context, v *VisitRecord) error
}

// OrderStore persists orders and their result sets.
type OrderStore interface {
	SaveOrder(ctx context.Context, o *OrderRecord) error
	SaveResults(ctx context.Context, results []*ResultRecord) error
}
