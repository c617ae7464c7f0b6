package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// processPatientAdmin upserts demographics, advances the visit state machine
// keyed by event type, and evaluates the admission rule set.
func (r *Router) processPatientAdmin(ctx context.Context, env *Envelope) *ProcessingResult {
	if env.Patient == nil || env.Visit == nil {
		return &ProcessingResult{
			Success: false,
			Message: "PatientAdmin event requires Patient and Visit sections",
		}
	}
	ident := env.Patient.PrimaryIdentifier()
	if ident == nil || env.Patient.Demographics == nil {
		return &ProcessingResult{
			Success: false,
			Message: "PatientAdmin event requires a patient identifier and demographics",
		}
	}

	demo := env.Patient.Demographics
	dob, _ := parseDOB(demo.DOB)
	patient := &PatientRecord{
		FacilityCode: env.Meta.FacilityCode,
		MRN:          ident.ID,
		IDType:       ident.IDType,
		FirstName:    demo.FirstName,
		LastName:     demo.LastName,
		DOB:          dob,
		Sex:          demo.Sex,
		Phone:        demo.Phone,
	}
	if err := r.patients.Upsert(ctx, patient); err != nil {
		return &ProcessingResult{
			Success: false,
			Message: fmt.Sprintf("upsert patient: %v", err),
		}
	}

	visitTime, _ := parseEventTime(env.Visit.VisitDateTime)
	var dept, room, bed string
	if env.Visit.Location != nil {
		dept = env.Visit.Location.Department
		room = env.Visit.Location.Room
		bed = env.Visit.Location.Bed
	}
	var attending string
	if p := env.Visit.AttendingProvider; p != nil {
		attending = fmt.Sprintf("%s %s", p.FirstName, p.LastName)
	}
	visit := &VisitRecord{
		FacilityCode:      env.Meta.FacilityCode,
		VisitNumber:       env.Visit.VisitNumber,
		PatientMRN:        ident.ID,
		PatientClass:      env.Visit.PatientClass,
		VisitDateTime:     visitTime,
		Department:        dept,
		Room:              room,
		Bed:               bed,
		AttendingProvider: attending,
	}

	message := fmt.Sprintf("PatientAdmin %s processed", env.Meta.EventType)
	switch env.Meta.EventType {
	case "Admission", "NewPatient":
		if err := r.visits.Create(ctx, visit); err != nil {
			return &ProcessingResult{Success: false, Message: fmt.Sprintf("create visit: %v", err)}
		}
	case "Discharge":
		err := r.visits.Discharge(ctx, env.Meta.FacilityCode, env.Visit.VisitNumber, time.Now().UTC())
		if errors.Is(err, ErrVisitNotFound) {
			// Redelivery or out-of-order discharge: handled, not fatal.
			r.logger.Warn().
				Str("visit_number", env.Visit.VisitNumber).
				Str("facility", env.Meta.FacilityCode).
				Msg("discharge for unknown visit")
			message = fmt.Sprintf("PatientAdmin Discharge processed (visit %s not found)", env.Visit.VisitNumber)
		} else if err != nil {
			return &ProcessingResult{Success: false, Message: fmt.Sprintf("discharge visit: %v", err)}
		}
	case "Transfer":
		err := r.visits.UpdateLocation(ctx, env.Meta.FacilityCode, env.Visit.VisitNumber, dept, room, bed)
		if err != nil {
			return &ProcessingResult{Success: false, Message: fmt.Sprintf("transfer visit: %v", err)}
		}
	default:
		if err := r.visits.Update(ctx, visit); err != nil {
			return &ProcessingResult{Success: false, Message: fmt.Sprintf("update visit: %v", err)}
		}
	}

	alerts := r.engine.EvaluateAdmission(ctx,
		ident.ID, env.Visit.VisitNumber,
		env.Meta.EventType, env.Visit.PatientClass,
		dept, env.Meta.FacilityCode,
	)

	return &ProcessingResult{
		Success:         true,
		Message:         message,
		PatientID:       ident.ID,
		VisitID:         env.Visit.VisitNumber,
		AlertsTriggered: len(alerts),
	}
}
