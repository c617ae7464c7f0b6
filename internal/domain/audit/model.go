// Package audit provides the append-only record of every clinical event the
// pipeline receives. A record is written before any domain processing so that
// no event can reach the alerting stage unaudited.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Record struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	DataModel     string          `db:"data_model" json:"data_model"`
	EventType     string          `db:"event_type" json:"event_type"`
	EventDateTime string          `db:"event_datetime" json:"event_datetime"`
	FacilityCode  string          `db:"facility_code" json:"facility_code"`
	SourceID      string          `db:"source_id" json:"source_id"`
	SourceName    string          `db:"source_name" json:"source_name"`
	Test          bool            `db:"test" json:"test"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	ReceivedAt    time.Time       `db:"received_at" json:"received_at"`
}
