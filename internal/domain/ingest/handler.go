package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pulseline/pulseline/internal/platform/webhook"
)

// Handler is the HTTP entry point for the ingestion pipeline. A request flows
// signature check, payload validation, audit, routing, response; any failure
// short-circuits to the matching status code.
type Handler struct {
	verifier *webhook.Verifier
	router   *Router
	logger   zerolog.Logger
}

func NewHandler(verifier *webhook.Verifier, router *Router, logger zerolog.Logger) *Handler {
	return &Handler{verifier: verifier, router: router, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook", h.Receive)
	e.POST("/webhook/echo", h.Echo)
}

type webhookResponse struct {
	Status           string                 `json:"status"`
	Message          string                 `json:"message"`
	Success          bool                   `json:"success"`
	PatientID        string                 `json:"patientId,omitempty"`
	VisitID          string                 `json:"visitId,omitempty"`
	AlertsTriggered  int                    `json:"alertsTriggered"`
	DataProcessed    map[string]interface{} `json:"dataProcessed,omitempty"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
}

// Receive handles POST /webhook.
func (h *Handler) Receive(c echo.Context) error {
	start := time.Now()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// The body-limit reader surfaces a 413 through the read; pass it on
		// instead of collapsing it into a generic 400.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	// Signature is computed over the raw body, never a re-serialized form.
	if !h.verifier.Verify(body, c.Request().Header.Get(webhook.SignatureHeader)) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid payload",
			"details": []string{"malformed JSON body"},
		})
	}

	if vr := Validate(&env); !vr.IsValid {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid payload",
			"details": vr.Errors,
		})
	}

	result, err := h.router.Route(c.Request().Context(), &env, body)
	if err != nil {
		// Audit failure: an unaudited clinical event must not be acknowledged.
		h.logger.Error().
			Err(err).
			Str("data_model", string(env.Meta.DataModel)).
			Str("facility", env.Meta.FacilityCode).
			Msg("audit write failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, webhookResponse{
		Status:           "success",
		Message:          result.Message,
		Success:          result.Success,
		PatientID:        result.PatientID,
		VisitID:          result.VisitID,
		AlertsTriggered:  result.AlertsTriggered,
		DataProcessed:    result.DataProcessed,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// Echo handles POST /webhook/echo, an operational endpoint that reflects the
// received body and reports whether signature verification is enabled.
func (h *Handler) Echo(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// The body-limit reader surfaces a 413 through the read; pass it on
		// instead of collapsing it into a generic 400.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	var received interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &received); err != nil {
			received = string(body)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"received":              received,
		"signatureVerification": h.verifier.Enabled(),
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	})
}
