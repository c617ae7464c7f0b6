package ingest

import (
	"context"
	"fmt"

	"github.com/pulseline/pulseline/internal/domain/alert"
)

// processOrders persists each order and runs the medication interaction rules
// against its procedure. The engine's keyword table decides which orders are
// cardiovascular medications; non-matching orders produce no alerts.
func (r *Router) processOrders(ctx context.Context, env *Envelope) *ProcessingResult {
	if env.Patient == nil || len(env.Orders) == 0 {
		return &ProcessingResult{
			Success: false,
			Message: "Orders event requires Patient and at least one Order",
		}
	}
	ident := env.Patient.PrimaryIdentifier()
	if ident == nil {
		return &ProcessingResult{
			Success: false,
			Message: "Orders event requires a patient identifier",
		}
	}

	ordersProcessed := 0
	alertsTriggered := 0

	for _, order := range env.Orders {
		var provider string
		if order.Provider != nil {
			provider = fmt.Sprintf("%s %s", order.Provider.FirstName, order.Provider.LastName)
		}

		rec := &OrderRecord{
			FacilityCode:         env.Meta.FacilityCode,
			OrderID:              order.ID,
			PatientMRN:           ident.ID,
			Provider:             provider,
			ProcedureCode:        order.Procedure.Code,
			ProcedureCodeset:     order.Procedure.Codeset,
			ProcedureDescription: order.Procedure.Description,
			Status:               order.Status,
		}
		if t, ok := parseEventTime(order.TransactionDateTime); ok {
			rec.TransactionDateTime = &t
		}

		if err := r.orders.SaveOrder(ctx, rec); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID).
				Str("facility", env.Meta.FacilityCode).
				Msg("failed to persist order")
		}

		// Medication rules run even when the store rejects the order.
		alerts := r.engine.EvaluateMedication(ctx, ident.ID, alert.Procedure{
			Code:        order.Procedure.Code,
			Codeset:     order.Procedure.Codeset,
			Description: order.Procedure.Description,
		}, provider, env.Meta.FacilityCode)

		ordersProcessed++
		alertsTriggered += len(alerts)
	}

	return &ProcessingResult{
		Success:         true,
		Message:         fmt.Sprintf("Orders processed: %d order(s)", ordersProcessed),
		PatientID:       ident.ID,
		AlertsTriggered: alertsTriggered,
		DataProcessed: map[string]interface{}{
			"ordersProcessed": ordersProcessed,
		},
	}
}
