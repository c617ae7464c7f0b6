package alert

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	alerts    map[uuid.UUID]*Alert
	order     []uuid.UUID
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{alerts: make(map[uuid.UUID]*Alert)}
}

func (m *mockRepo) Create(_ context.Context, a *Alert) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.CreatedAt = time.Now()
	m.alerts[a.ID] = a
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) List(_ context.Context, facilityCode, patientID string, limit, offset int) ([]*Alert, int, error) {
	var result []*Alert
	for _, id := range m.order {
		a := m.alerts[id]
		if facilityCode != "" && a.FacilityCode != facilityCode {
			continue
		}
		if patientID != "" && a.PatientID != patientID {
			continue
		}
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockRepo) Acknowledge(_ context.Context, id uuid.UUID, who string, at time.Time) error {
	a, ok := m.alerts[id]
	if !ok {
		return ErrNotFound
	}
	if a.Acknowledged {
		return ErrAlreadyAcknowledged
	}
	a.Acknowledged = true
	a.AcknowledgedBy = &who
	a.AcknowledgedAt = &at
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func newTestEngine() (*Engine, *mockRepo) {
	repo := newMockRepo()
	return NewEngine(repo, testLogger()), repo
}

// -- Admission rules --

func TestEvaluateAdmission_CardiacUnit(t *testing.T) {
	eng, repo := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Admission", "Inpatient", "Cardiology Unit", "fac-1")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Type != TypeInfo {
		t.Errorf("expected info alert, got %s", a.Type)
	}
	if a.Severity != 3 {
		t.Errorf("expected severity 3, got %d", a.Severity)
	}
	if a.Category != CategoryCardiac {
		t.Errorf("expected cardiac category, got %s", a.Category)
	}
	if len(repo.alerts) != 1 {
		t.Errorf("expected alert to be persisted")
	}
}

func TestEvaluateAdmission_CardiacUnitRequiresAdmissionEvent(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Transfer", "Outpatient", "Cardiology Unit", "fac-1")
	if len(alerts) != 0 {
		t.Errorf("expected no alerts for non-admission event, got %d", len(alerts))
	}
}

func TestEvaluateAdmission_IntensiveCare(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Transfer", "Inpatient", "Medical ICU", "fac-1")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != TypeWarning || alerts[0].Severity != 4 {
		t.Errorf("expected warning severity 4, got %s/%d", alerts[0].Type, alerts[0].Severity)
	}
}

func TestEvaluateAdmission_IntensiveCareRequiresInpatient(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Transfer", "Observation", "Medical ICU", "fac-1")
	if len(alerts) != 0 {
		t.Errorf("expected no alerts for non-inpatient class, got %d", len(alerts))
	}
}

func TestEvaluateAdmission_EmergencyDepartment(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Registration", "Emergency", "Trauma Bay 2", "fac-1")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != 4 {
		t.Errorf("expected severity 4, got %d", alerts[0].Severity)
	}
}

func TestEvaluateAdmission_ChecksAreIndependent(t *testing.T) {
	eng, _ := newTestEngine()

	// A cardiac ICU admission matches both the cardiac-unit and ICU rules.
	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Admission", "Inpatient", "Cardiac Intensive Care Unit", "fac-1")
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
}

func TestEvaluateAdmission_NoMatch(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Admission", "Inpatient", "Orthopilates Wing", "fac-1")
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}

func TestEvaluateAdmission_ShortKeywordsMatchWholeWordsOnly(t *testing.T) {
	eng, _ := newTestEngine()

	// "General Medicine" contains the letters "er" but is not an emergency
	// department; "ER Bay 3" is.
	if alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Admission", "Inpatient", "General Medicine", "fac-1"); len(alerts) != 0 {
		t.Errorf("expected no alerts for General Medicine, got %d", len(alerts))
	}
	if alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Registration", "Emergency", "ER Bay 3", "fac-1"); len(alerts) != 1 {
		t.Errorf("expected 1 alert for ER Bay 3, got %d", len(alerts))
	}

	// "Medical ICU" contains "ed" as a substring of "Medical"; only the ICU
	// rule may fire, never the emergency rule.
	alerts := eng.EvaluateAdmission(context.Background(), "p1", "v1", "Admission", "Inpatient", "Medical ICU", "fac-1")
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert for Medical ICU, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "intensive care") {
		t.Errorf("expected the intensive care warning, got %q", alerts[0].Message)
	}
}

// -- Lab threshold rules --

func labProc() Procedure {
	return Procedure{Code: "TROP", Description: "Cardiac Enzyme Panel"}
}

func TestEvaluateLab_TroponinElevatedOnly(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "0.0399", Units: "ng/mL"},
	}, labProc(), "fac-1")

	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != TypeWarning || alerts[0].Severity != 4 {
		t.Errorf("expected elevated warning severity 4, got %s/%d", alerts[0].Type, alerts[0].Severity)
	}
}

func TestEvaluateLab_TroponinCriticalOnly(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "0.04", Units: "ng/mL"},
	}, labProc(), "fac-1")

	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != TypeCritical || alerts[0].Severity != 5 {
		t.Errorf("expected critical severity 5, got %s/%d", alerts[0].Type, alerts[0].Severity)
	}
}

func TestEvaluateLab_TroponinBelowThreshold(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "0.01", Units: "ng/mL"},
	}, labProc(), "fac-1")

	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}

func TestEvaluateLab_BNPCritical(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Description: "BNP", Value: "400", Units: "pg/mL"},
		{Description: "BNP", Value: "399.9", Units: "pg/mL"},
	}, labProc(), "fac-1")

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != 5 {
		t.Errorf("expected severity 5, got %d", alerts[0].Severity)
	}
}

func TestEvaluateLab_NTProBNPNotMistakenForBNP(t *testing.T) {
	eng, _ := newTestEngine()

	// 500 pg/mL is critical for BNP but normal for NT-proBNP.
	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Description: "NT-proBNP", Value: "500", Units: "pg/mL"},
	}, labProc(), "fac-1")
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts for NT-proBNP 500, got %d", len(alerts))
	}

	alerts = eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Description: "NT-proBNP", Value: "1800", Units: "pg/mL"},
	}, labProc(), "fac-1")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for NT-proBNP 1800, got %d", len(alerts))
	}
}

func TestEvaluateLab_PotassiumBounds(t *testing.T) {
	eng, _ := newTestEngine()

	cases := []struct {
		value string
		want  int
	}{
		{"2.9", 1},
		{"3.0", 0},
		{"4.2", 0},
		{"6.0", 0},
		{"6.1", 1},
	}
	for _, tc := range cases {
		alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
			{Code: "2823-3", Description: "Potassium", Value: tc.value, Units: "mmol/L"},
		}, labProc(), "fac-1")
		if len(alerts) != tc.want {
			t.Errorf("potassium %s: expected %d alerts, got %d", tc.value, tc.want, len(alerts))
		}
	}
}

func TestEvaluateLab_NonNumericSkipped(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "PENDING", Units: "ng/mL"},
		{Code: "2823-3", Description: "Potassium", Value: "", Units: "mmol/L"},
	}, labProc(), "fac-1")

	if len(alerts) != 0 {
		t.Errorf("expected non-numeric values to be skipped, got %d alerts", len(alerts))
	}
}

func TestEvaluateLab_UnknownAnalyteIgnored(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "718-7", Description: "Hemoglobin", Value: "900", Units: "g/dL"},
	}, labProc(), "fac-1")

	if len(alerts) != 0 {
		t.Errorf("expected no alerts for unmonitored analyte, got %d", len(alerts))
	}
}

func TestEvaluateLab_MultipleAlertsPerOrder(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "0.05", Units: "ng/mL"},
		{Code: "2823-3", Description: "Potassium", Value: "6.8", Units: "mmol/L"},
	}, labProc(), "fac-1")

	if len(alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(alerts))
	}
}

func TestEvaluateLab_StoreFailureStillReturnsAlert(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = fmt.Errorf("store unavailable")
	eng := NewEngine(repo, testLogger())

	alerts := eng.EvaluateLab(context.Background(), "p1", []LabResult{
		{Code: "10839-9", Description: "Troponin I", Value: "0.05", Units: "ng/mL"},
	}, labProc(), "fac-1")

	if len(alerts) != 1 {
		t.Errorf("expected alert despite store failure, got %d", len(alerts))
	}
}

// -- Medication rules --

func TestEvaluateMedication_Match(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateMedication(context.Background(), "p1",
		Procedure{Code: "RX-100", Description: "Warfarin Sodium 5mg Tablet"},
		"Dr. Reyes", "fac-1")

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Type != TypeWarning || a.Severity != 3 {
		t.Errorf("expected warning severity 3, got %s/%d", a.Type, a.Severity)
	}
	if a.Category != CategoryMedication {
		t.Errorf("expected medication category, got %s", a.Category)
	}
}

func TestEvaluateMedication_CaseInsensitive(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateMedication(context.Background(), "p1",
		Procedure{Description: "AMIODARONE infusion"}, "", "fac-1")
	if len(alerts) != 1 {
		t.Errorf("expected case-insensitive match, got %d alerts", len(alerts))
	}
}

func TestEvaluateMedication_NoMatch(t *testing.T) {
	eng, _ := newTestEngine()

	alerts := eng.EvaluateMedication(context.Background(), "p1",
		Procedure{Description: "Amoxicillin 500mg Capsule"}, "", "fac-1")
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}
