package ingest

import (
	"context"
	"fmt"

	"github.com/pulseline/pulseline/internal/domain/alert"
)

// processResults persists each order's result set and evaluates the lab
// threshold rules against it. Processing is best effort across orders: one
// order's failure does not abort the rest, and partial success is reported
// through the aggregate counts.
func (r *Router) processResults(ctx context.Context, env *Envelope) *ProcessingResult {
	if env.Patient == nil || len(env.Orders) == 0 {
		return &ProcessingResult{
			Success: false,
			Message: "Results event requires Patient and at least one Order",
		}
	}
	ident := env.Patient.PrimaryIdentifier()
	if ident == nil {
		return &ProcessingResult{
			Success: false,
			Message: "Results event requires a patient identifier",
		}
	}

	ordersProcessed := 0
	totalResults := 0
	alertsTriggered := 0

	for _, order := range env.Orders {
		if len(order.Results) == 0 {
			continue
		}

		records := make([]*ResultRecord, 0, len(order.Results))
		labResults := make([]alert.LabResult, 0, len(order.Results))
		for _, res := range order.Results {
			value := ""
			if res.Value != nil {
				value = *res.Value
			}
			records = append(records, &ResultRecord{
				FacilityCode:   env.Meta.FacilityCode,
				OrderID:        order.ID,
				Code:           res.Code,
				Description:    res.Description,
				Value:          value,
				ValueType:      res.ValueType,
				Units:          res.Units,
				ReferenceRange: res.ReferenceRange,
				AbnormalFlag:   res.AbnormalFlag,
				Status:         res.Status,
			})
			labResults = append(labResults, alert.LabResult{
				Code:        res.Code,
				Description: res.Description,
				Value:       value,
				Units:       res.Units,
			})
		}

		// Persistence trouble must never suppress a clinical alert, so the
		// rule evaluation below runs even when the store rejects the batch.
		if err := r.orders.SaveResults(ctx, records); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID).
				Str("facility", env.Meta.FacilityCode).
				Msg("failed to persist order results")
		}

		alerts := r.engine.EvaluateLab(ctx, ident.ID, labResults, alert.Procedure{
			Code:        order.Procedure.Code,
			Codeset:     order.Procedure.Codeset,
			Description: order.Procedure.Description,
		}, env.Meta.FacilityCode)

		ordersProcessed++
		totalResults += len(order.Results)
		alertsTriggered += len(alerts)
	}

	return &ProcessingResult{
		Success:         true,
		Message:         fmt.Sprintf("Results processed: %d order(s), %d result(s)", ordersProcessed, totalResults),
		PatientID:       ident.ID,
		AlertsTriggered: alertsTriggered,
		DataProcessed: map[string]interface{}{
			"ordersProcessed": ordersProcessed,
			"totalResults":    totalResults,
		},
	}
}
