package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseline/pulseline/internal/domain/alert"
	"github.com/pulseline/pulseline/internal/domain/audit"
)

// Router dispatches a validated envelope to the processor for its data model
// and aggregates the result. It recovers processor panics, so the HTTP layer
// only ever sees an error when the audit write fails.
type Router struct {
	patients   PatientStore
	visits     VisitStore
	orders     OrderStore
	engine     *alert.Engine
	sink       *audit.Sink
	logger     zerolog.Logger
	production bool
}

func NewRouter(
	patients PatientStore,
	visits VisitStore,
	orders OrderStore,
	engine *alert.Engine,
	sink *audit.Sink,
	logger zerolog.Logger,
	production bool,
) *Router {
	return &Router{
		patients:   patients,
		visits:     visits,
		orders:     orders,
		engine:     engine,
		sink:       sink,
		logger:     logger,
		production: production,
	}
}

// Route audits the envelope, then dispatches it. The returned error is
// non-nil only when the audit record could not be written; every processing
// outcome, including failures, is reported inside the ProcessingResult.
func (r *Router) Route(ctx context.Context, env *Envelope, rawPayload []byte) (*ProcessingResult, error) {
	// One audit record per received event, before any clinical processing.
	rec := &audit.Record{
		DataModel:     string(env.Meta.DataModel),
		EventType:     env.Meta.EventType,
		EventDateTime: env.Meta.EventDateTime,
		FacilityCode:  env.Meta.FacilityCode,
		SourceID:      env.Meta.Source.ID,
		SourceName:    env.Meta.Source.Name,
		Test:          env.Meta.Test,
		Payload:       rawPayload,
	}
	if err := r.sink.Record(ctx, rec); err != nil {
		return nil, err
	}

	// Test traffic must never mutate production clinical state.
	if env.Meta.Test && r.production {
		return &ProcessingResult{
			Success: true,
			Message: "Test event received and skipped (production mode)",
		}, nil
	}

	return r.dispatch(ctx, env), nil
}

func (r *Router) dispatch(ctx context.Context, env *Envelope) (result *ProcessingResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("data_model", string(env.Meta.DataModel)).
				Str("event_type", env.Meta.EventType).
				Dur("duration", time.Since(start)).
				Interface("panic", rec).
				Msg("processor panic recovered")
			result = &ProcessingResult{
				Success: false,
				Message: fmt.Sprintf("processing failed: %v", rec),
			}
		}
	}()

	switch env.Meta.DataModel {
	case DataModelPatientAdmin:
		result = r.processPatientAdmin(ctx, env)
	case DataModelResults:
		result = r.processResults(ctx, env)
	case DataModelOrders:
		result = r.processOrders(ctx, env)
	case DataModelClinicalSummary, DataModelNotes, DataModelScheduling:
		result = r.processStub(env)
	default:
		result = &ProcessingResult{
			Success: false,
			Message: fmt.Sprintf("Unsupported data model: %s", env.Meta.DataModel),
		}
	}

	evt := r.logger.Info()
	if !result.Success {
		evt = r.logger.Warn()
	}
	evt.
		Str("data_model", string(env.Meta.DataModel)).
		Str("event_type", env.Meta.EventType).
		Str("facility", env.Meta.FacilityCode).
		Bool("success", result.Success).
		Int("alerts_triggered", result.AlertsTriggered).
		Dur("duration", time.Since(start)).
		Msg("event processed")

	return result
}
