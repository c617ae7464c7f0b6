// Package ingest receives webhook events from the EMR integration broker,
// validates their structure, routes them to a processor for their clinical
// data model, and reports a processing result back to the HTTP layer.
package ingest

import "time"

// DataModel is the broker's category for a clinical message. It is a closed
// set: routing switches over these values and anything else is rejected with
// a structured failure rather than a fallthrough.
type DataModel string

const (
	DataModelPatientAdmin    DataModel = "PatientAdmin"
	DataModelResults         DataModel = "Results"
	DataModelOrders          DataModel = "Orders"
	DataModelClinicalSummary DataModel = "ClinicalSummary"
	DataModelNotes           DataModel = "Notes"
	DataModelScheduling      DataModel = "Scheduling"
)

// Known reports whether the data model is one the router dispatches on.
func (d DataModel) Known() bool {
	switch d {
	case DataModelPatientAdmin, DataModelResults, DataModelOrders,
		DataModelClinicalSummary, DataModelNotes, DataModelScheduling:
		return true
	}
	return false
}

// Envelope is the decoded webhook payload. Field names follow the broker's
// wire format (PascalCase JSON keys). An envelope is constructed once per
// request and never mutated after parse.
type Envelope struct {
	Meta    Meta     `json:"Meta"`
	Patient *Patient `json:"Patient,omitempty"`
	Visit   *Visit   `json:"Visit,omitempty"`
	Orders  []Order  `json:"Orders,omitempty"`
}

type Meta struct {
	DataModel     DataModel `json:"DataModel"`
	EventType     string    `json:"EventType"`
	EventDateTime string    `json:"EventDateTime"`
	Test          bool      `json:"Test"`
	Source        Source    `json:"Source"`
	FacilityCode  string    `json:"FacilityCode"`
}

type Source struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

type Patient struct {
	Identifiers  []Identifier  `json:"Identifiers,omitempty"`
	Demographics *Demographics `json:"Demographics,omitempty"`
}

type Identifier struct {
	ID     string `json:"ID"`
	IDType string `json:"IDType"`
}

type Demographics struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	DOB       string `json:"DOB"`
	Sex       string `json:"Sex"`
	Phone     string `json:"PhoneNumber,omitempty"`
	Address   string `json:"Address,omitempty"`
	Language  string `json:"Language,omitempty"`
}

type Visit struct {
	VisitNumber       string    `json:"VisitNumber"`
	PatientClass      string    `json:"PatientClass"`
	VisitDateTime     string    `json:"VisitDateTime"`
	Location          *Location `json:"Location,omitempty"`
	AttendingProvider *Provider `json:"AttendingProvider,omitempty"`
}

type Location struct {
	Department string `json:"Department"`
	Room       string `json:"Room,omitempty"`
	Bed        string `json:"Bed,omitempty"`
}

type Provider struct {
	ID        string `json:"ID,omitempty"`
	FirstName string `json:"FirstName,omitempty"`
	LastName  string `json:"LastName,omitempty"`
}

type Order struct {
	ID                  string    `json:"ID"`
	TransactionDateTime string    `json:"TransactionDateTime,omitempty"`
	Provider            *Provider `json:"Provider,omitempty"`
	Procedure           Procedure `json:"Procedure"`
	Status              string    `json:"Status,omitempty"`
	Results             []Result  `json:"Results,omitempty"`
}

type Procedure struct {
	Code        string `json:"Code"`
	Codeset     string `json:"Codeset,omitempty"`
	Description string `json:"Description"`
}

type Result struct {
	Code           string  `json:"Code"`
	Description    string  `json:"Description"`
	Value          *string `json:"Value"`
	ValueType      string  `json:"ValueType,omitempty"`
	Units          string  `json:"Units,omitempty"`
	ReferenceRange string  `json:"ReferenceRange,omitempty"`
	AbnormalFlag   string  `json:"AbnormalFlag,omitempty"`
	Status         string  `json:"Status"`
}

// PrimaryIdentifier returns the patient's first identifier, the external key
// the persistence collaborators upsert on.
func (p *Patient) PrimaryIdentifier() *Identifier {
	if p == nil || len(p.Identifiers) == 0 {
		return nil
	}
	return &p.Identifiers[0]
}

// ProcessingResult is the outcome of routing one envelope. The pipeline never
// retries internally; redelivery is the broker's responsibility.
type ProcessingResult struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	PatientID       string                 `json:"patientId,omitempty"`
	VisitID         string                 `json:"visitId,omitempty"`
	AlertsTriggered int                    `json:"alertsTriggered"`
	DataProcessed   map[string]interface{} `json:"dataProcessed,omitempty"`
}

// Timestamp layouts the broker is known to send.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// parseEventTime parses a broker timestamp, trying each known layout.
func parseEventTime(s string) (time.Time, bool) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

const dobLayout = "2006-01-02"

func parseDOB(s string) (time.Time, bool) {
	t, err := time.Parse(dobLayout, s)
	return t, err == nil
}
