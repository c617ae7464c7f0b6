package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// LabResult is the slice of an incoming lab result the engine evaluates.
type LabResult struct {
	Code        string
	Description string
	Value       string
	Units       string
}

// Procedure identifies the ordered procedure a result or order belongs to.
type Procedure struct {
	Code        string
	Codeset     string
	Description string
}

// Engine evaluates cardiovascular risk rules against admissions, lab results
// and medication orders. Every alert it produces is handed to the repository
// before being returned; a storage failure is logged but does not suppress
// the alert, so callers always see the full set of triggered rules.
type Engine struct {
	repo   Repository
	logger zerolog.Logger
}

func NewEngine(repo Repository, logger zerolog.Logger) *Engine {
	return &Engine{repo: repo, logger: logger}
}

// -- Admission rules --

var cardiacUnitKeywords = []string{"cardiology", "cardiac", "heart", "cath lab", "catheterization"}
var intensiveCareKeywords = []string{"icu", "ccu", "intensive care", "coronary care", "critical care"}
var emergencyKeywords = []string{"emergency", "ed", "er", "trauma"}

// matchesAny reports whether any keyword appears in s. Multi-word keywords
// match as substrings; single-word keywords match whole tokens only, so
// "er" matches "ER Bay 3" but not "General Medicine".
func matchesAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(s, kw) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

// EvaluateAdmission applies the location and admission based rule set. The
// three checks are independent: a single event can fire all of them.
func (e *Engine) EvaluateAdmission(ctx context.Context, patientID, visitID, eventType, patientClass, department, facilityCode string) []*Alert {
	var alerts []*Alert

	if eventType == "Admission" && matchesAny(department, cardiacUnitKeywords) {
		a := newAlert(TypeInfo, CategoryCardiac, 3,
			fmt.Sprintf("Patient admitted to cardiac unit: %s", department),
			patientID, facilityCode)
		a.Recommendations = []string{
			"Review cardiac history and current medications",
			"Ensure baseline ECG and cardiac enzymes are ordered",
		}
		a.RelatedData = map[string]interface{}{
			"visitId":    visitID,
			"eventType":  eventType,
			"department": department,
		}
		alerts = append(alerts, a)
	}

	if patientClass == "Inpatient" && matchesAny(department, intensiveCareKeywords) {
		a := newAlert(TypeWarning, CategoryCardiac, 4,
			fmt.Sprintf("Inpatient in intensive care unit: %s", department),
			patientID, facilityCode)
		a.ActionRequired = true
		a.Recommendations = []string{
			"Confirm continuous cardiac monitoring is active",
			"Verify critical care team has been notified",
		}
		a.RelatedData = map[string]interface{}{
			"visitId":      visitID,
			"patientClass": patientClass,
			"department":   department,
		}
		alerts = append(alerts, a)
	}

	if matchesAny(department, emergencyKeywords) {
		a := newAlert(TypeWarning, CategoryCardiac, 4,
			fmt.Sprintf("Patient in emergency department: %s", department),
			patientID, facilityCode)
		a.ActionRequired = true
		a.Recommendations = []string{
			"Obtain 12-lead ECG within 10 minutes if chest pain is reported",
			"Prioritize cardiac triage",
		}
		a.RelatedData = map[string]interface{}{
			"visitId":    visitID,
			"department": department,
		}
		alerts = append(alerts, a)
	}

	e.persist(ctx, alerts)
	return alerts
}

// -- Lab threshold rules --

type analyte int

const (
	analyteUnknown analyte = iota
	analyteTroponin
	analyteBNP
	analyteNTProBNP
	analytePotassium
)

// LOINC codes for the monitored cardiovascular analytes.
var analyteCodes = map[string]analyte{
	"10839-9": analyteTroponin, // Troponin I [Mass/volume] in Serum or Plasma
	"42757-5": analyteTroponin, // Troponin I cardiac [Mass/volume] in Blood
	"89579-7": analyteTroponin, // High sensitivity Troponin I
	"30934-4": analyteBNP,      // Natriuretic peptide B [Mass/volume]
	"42637-9": analyteBNP,
	"33762-6": analyteNTProBNP, // NT-proBNP [Mass/volume]
	"83107-3": analyteNTProBNP,
	"2823-3":  analytePotassium, // Potassium [Moles/volume] in Serum or Plasma
	"6298-4":  analytePotassium, // Potassium [Moles/volume] in Blood
}

// classifyAnalyte identifies the analyte by LOINC code or, failing that, by a
// case-insensitive keyword in the result description. NT-proBNP is checked
// before BNP because "bnp" is a substring of its description.
func classifyAnalyte(code, description string) analyte {
	if a, ok := analyteCodes[code]; ok {
		return a
	}
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "troponin"):
		return analyteTroponin
	case strings.Contains(desc, "nt-probnp"), strings.Contains(desc, "pro-bnp"), strings.Contains(desc, "probnp"):
		return analyteNTProBNP
	case strings.Contains(desc, "bnp"), strings.Contains(desc, "natriuretic"):
		return analyteBNP
	case strings.Contains(desc, "potassium"):
		return analytePotassium
	default:
		return analyteUnknown
	}
}

// Threshold values. Critical bounds take precedence over elevated bounds:
// a value meeting the critical bound fires only the critical alert.
const (
	troponinElevated  = 0.014 // ng/mL
	troponinCritical  = 0.04  // ng/mL
	bnpCritical       = 400   // pg/mL
	ntProBNPCritical  = 1800  // pg/mL
	potassiumCritLow  = 3.0   // mmol/L
	potassiumCritHigh = 6.0   // mmol/L
)

// EvaluateLab applies numeric threshold rules to each result independently.
// Results whose value does not parse as a number are skipped.
func (e *Engine) EvaluateLab(ctx context.Context, patientID string, results []LabResult, proc Procedure, facilityCode string) []*Alert {
	var alerts []*Alert

	for _, res := range results {
		value, err := strconv.ParseFloat(strings.TrimSpace(res.Value), 64)
		if err != nil {
			continue
		}

		var a *Alert
		switch classifyAnalyte(res.Code, res.Description) {
		case analyteTroponin:
			switch {
			case value >= troponinCritical:
				a = newAlert(TypeCritical, CategoryLab, 5,
					fmt.Sprintf("Critical troponin level: %s %s", res.Value, res.Units),
					patientID, facilityCode)
				a.ActionRequired = true
				a.Recommendations = []string{
					"Immediate cardiology consultation",
					"Evaluate for acute coronary syndrome",
					"Serial troponin measurements per ACS protocol",
				}
			case value >= troponinElevated:
				a = newAlert(TypeWarning, CategoryLab, 4,
					fmt.Sprintf("Elevated troponin level: %s %s", res.Value, res.Units),
					patientID, facilityCode)
				a.ActionRequired = true
				a.Recommendations = []string{
					"Repeat troponin in 3-6 hours",
					"Obtain 12-lead ECG",
				}
			}
		case analyteBNP:
			if value >= bnpCritical {
				a = newAlert(TypeCritical, CategoryLab, 5,
					fmt.Sprintf("Critical BNP level: %s %s", res.Value, res.Units),
					patientID, facilityCode)
				a.ActionRequired = true
				a.Recommendations = []string{
					"Evaluate for acute decompensated heart failure",
					"Assess volume status and consider diuresis",
				}
			}
		case analyteNTProBNP:
			if value >= ntProBNPCritical {
				a = newAlert(TypeCritical, CategoryLab, 5,
					fmt.Sprintf("Critical NT-proBNP level: %s %s", res.Value, res.Units),
					patientID, facilityCode)
				a.ActionRequired = true
				a.Recommendations = []string{
					"Evaluate for acute decompensated heart failure",
					"Consider echocardiogram if not recently performed",
				}
			}
		case analytePotassium:
			if value < potassiumCritLow || value > potassiumCritHigh {
				a = newAlert(TypeCritical, CategoryLab, 5,
					fmt.Sprintf("Critical potassium level: %s %s", res.Value, res.Units),
					patientID, facilityCode)
				a.ActionRequired = true
				a.Recommendations = []string{
					"Obtain STAT ECG for arrhythmia risk",
					"Initiate potassium correction protocol",
					"Hold potassium-affecting medications pending review",
				}
			}
		}

		if a != nil {
			a.RelatedData = map[string]interface{}{
				"resultCode":        res.Code,
				"resultDescription": res.Description,
				"value":             res.Value,
				"units":             res.Units,
				"procedureCode":     proc.Code,
				"procedure":         proc.Description,
			}
			alerts = append(alerts, a)
		}
	}

	e.persist(ctx, alerts)
	return alerts
}

// -- Medication rules --

// Cardiovascular medications with narrow therapeutic windows or significant
// interaction potential.
var medicationKeywords = []string{
	"digoxin", "warfarin", "amiodarone", "procainamide",
	"quinidine", "flecainide", "propafenone", "dofetilide",
}

// EvaluateMedication checks the ordered procedure against the cardiovascular
// medication table and produces one warning per matching order.
func (e *Engine) EvaluateMedication(ctx context.Context, patientID string, proc Procedure, provider, facilityCode string) []*Alert {
	desc := strings.ToLower(proc.Description)

	var matched string
	for _, kw := range medicationKeywords {
		if strings.Contains(desc, kw) {
			matched = kw
			break
		}
	}
	if matched == "" {
		return nil
	}

	a := newAlert(TypeWarning, CategoryMedication, 3,
		fmt.Sprintf("High-risk cardiovascular medication ordered: %s", proc.Description),
		patientID, facilityCode)
	a.ActionRequired = true
	a.Recommendations = []string{
		"Review current medication list for interactions",
		"Verify renal function and recent electrolytes",
		"Confirm dosing against therapeutic drug monitoring guidance",
	}
	a.RelatedData = map[string]interface{}{
		"medication":    matched,
		"procedureCode": proc.Code,
		"procedure":     proc.Description,
		"provider":      provider,
	}

	alerts := []*Alert{a}
	e.persist(ctx, alerts)
	return alerts
}

// persist stores each alert, logging failures without dropping the alert:
// the triggered count must reflect rule evaluation even when the store is
// temporarily unavailable.
func (e *Engine) persist(ctx context.Context, alerts []*Alert) {
	for _, a := range alerts {
		if err := e.repo.Create(ctx, a); err != nil {
			e.logger.Error().
				Err(err).
				Str("alert_id", a.ID.String()).
				Str("patient_id", a.PatientID).
				Str("category", a.Category).
				Msg("failed to store alert")
		}
	}
}
