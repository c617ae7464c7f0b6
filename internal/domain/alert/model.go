package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert types, ordered by urgency.
const (
	TypeInfo     = "info"
	TypeWarning  = "warning"
	TypeCritical = "critical"
)

// Alert categories.
const (
	CategoryCardiac    = "cardiac"
	CategoryMedication = "medication"
	CategoryLab        = "lab"
	CategoryVitals     = "vitals"
	CategoryClinical   = "clinical"
)

// Alert is one triggered clinical rule. Once created an alert is immutable
// except for the acknowledgement fields, which transition exactly once from
// unacknowledged to acknowledged.
type Alert struct {
	ID              uuid.UUID              `db:"id" json:"id"`
	Type            string                 `db:"type" json:"type"`
	Category        string                 `db:"category" json:"category"`
	Severity        int                    `db:"severity" json:"severity"` // 1..5, 5 highest
	Message         string                 `db:"message" json:"message"`
	PatientID       string                 `db:"patient_id" json:"patient_id"`
	FacilityCode    string                 `db:"facility_code" json:"facility_code"`
	TriggeredAt     time.Time              `db:"triggered_at" json:"triggered_at"`
	Acknowledged    bool                   `db:"acknowledged" json:"acknowledged"`
	AcknowledgedBy  *string                `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time             `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	ActionRequired  bool                   `db:"action_required" json:"action_required"`
	Recommendations []string               `db:"recommendations" json:"recommendations"`
	RelatedData     map[string]interface{} `db:"related_data" json:"related_data,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
}

// newAlert constructs an unacknowledged alert with a fresh id.
func newAlert(typ, category string, severity int, message, patientID, facilityCode string) *Alert {
	return &Alert{
		ID:           uuid.New(),
		Type:         typ,
		Category:     category,
		Severity:     severity,
		Message:      message,
		PatientID:    patientID,
		FacilityCode: facilityCode,
		TriggeredAt:  time.Now().UTC(),
	}
}
