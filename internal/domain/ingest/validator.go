package ingest

import "fmt"

// ValidationResult holds every structural violation found in an envelope.
// Validation never short-circuits: all errors for an envelope are collected
// so each one is independently actionable by the sender.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks the structural completeness of a decoded envelope. It is a
// pure function: no side effects, no I/O. Base meta checks always apply;
// model-specific rule sets are dispatched on Meta.DataModel.
func Validate(env *Envelope) ValidationResult {
	var errs []string

	errs = append(errs, validateMeta(&env.Meta)...)

	switch env.Meta.DataModel {
	case DataModelPatientAdmin:
		errs = append(errs, validatePatientAdmin(env)...)
	case DataModelResults:
		errs = append(errs, validateResults(env)...)
	case DataModelOrders:
		errs = append(errs, validateOrders(env)...)
	}
	// Other data models carry no additional structural requirements; their
	// processors report "implementation pending" downstream.

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func validateMeta(meta *Meta) []string {
	var errs []string
	if meta.DataModel == "" {
		errs = append(errs, "Meta: Missing DataModel")
	}
	if meta.EventType == "" {
		errs = append(errs, "Meta: Missing EventType")
	}
	if meta.EventDateTime == "" {
		errs = append(errs, "Meta: Missing EventDateTime")
	} else if _, ok := parseEventTime(meta.EventDateTime); !ok {
		errs = append(errs, fmt.Sprintf("Meta: Invalid EventDateTime %q", meta.EventDateTime))
	}
	if meta.Source.ID == "" {
		errs = append(errs, "Meta: Missing Source.ID")
	}
	if meta.Source.Name == "" {
		errs = append(errs, "Meta: Missing Source.Name")
	}
	if meta.FacilityCode == "" {
		errs = append(errs, "Meta: Missing FacilityCode")
	}
	return errs
}

func validatePatientAdmin(env *Envelope) []string {
	var errs []string

	if env.Patient == nil {
		errs = append(errs, "PatientAdmin: Missing Patient")
	} else {
		if len(env.Patient.Identifiers) == 0 {
			errs = append(errs, "PatientAdmin: Missing Patient.Identifiers")
		}
		for i, ident := range env.Patient.Identifiers {
			if ident.ID == "" {
				errs = append(errs, fmt.Sprintf("PatientAdmin: Missing Patient.Identifiers[%d].ID", i))
			}
			if ident.IDType == "" {
				errs = append(errs, fmt.Sprintf("PatientAdmin: Missing Patient.Identifiers[%d].IDType", i))
			}
		}
		if env.Patient.Demographics == nil {
			errs = append(errs, "PatientAdmin: Missing Patient.Demographics")
		} else {
			demo := env.Patient.Demographics
			if demo.FirstName == "" {
				errs = append(errs, "PatientAdmin: Missing Patient.Demographics.FirstName")
			}
			if demo.LastName == "" {
				errs = append(errs, "PatientAdmin: Missing Patient.Demographics.LastName")
			}
			if demo.DOB == "" {
				errs = append(errs, "PatientAdmin: Missing Patient.Demographics.DOB")
			} else if _, ok := parseDOB(demo.DOB); !ok {
				errs = append(errs, fmt.Sprintf("PatientAdmin: Invalid Patient.Demographics.DOB %q", demo.DOB))
			}
			if demo.Sex == "" {
				errs = append(errs, "PatientAdmin: Missing Patient.Demographics.Sex")
			}
		}
	}

	if env.Visit == nil {
		errs = append(errs, "PatientAdmin: Missing Visit")
	} else {
		if env.Visit.VisitNumber == "" {
			errs = append(errs, "PatientAdmin: Missing Visit.VisitNumber")
		}
		if env.Visit.PatientClass == "" {
			errs = append(errs, "PatientAdmin: Missing Visit.PatientClass")
		}
		if env.Visit.VisitDateTime == "" {
			errs = append(errs, "PatientAdmin: Missing Visit.VisitDateTime")
		} else if _, ok := parseEventTime(env.Visit.VisitDateTime); !ok {
			errs = append(errs, fmt.Sprintf("PatientAdmin: Invalid Visit.VisitDateTime %q", env.Visit.VisitDateTime))
		}
	}

	return errs
}

func validateResults(env *Envelope) []string {
	var errs []string

	if env.Patient == nil {
		errs = append(errs, "Results: Missing Patient")
	}
	if len(env.Orders) == 0 {
		errs = append(errs, "Results: Missing Orders")
	}
	for i, order := range env.Orders {
		if order.ID == "" {
			errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].ID", i))
		}
		if order.Procedure.Code == "" {
			errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Procedure.Code", i))
		}
		if order.Procedure.Description == "" {
			errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Procedure.Description", i))
		}
		for j, res := range order.Results {
			if res.Code == "" {
				errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Results[%d].Code", i, j))
			}
			if res.Description == "" {
				errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Results[%d].Description", i, j))
			}
			if res.Value == nil {
				errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Results[%d].Value", i, j))
			}
			if res.Status == "" {
				errs = append(errs, fmt.Sprintf("Results: Missing Orders[%d].Results[%d].Status", i, j))
			}
		}
	}

	return errs
}

func validateOrders(env *Envelope) []string {
	var errs []string

	if env.Patient == nil {
		errs = append(errs, "Orders: Missing Patient")
	}
	if len(env.Orders) == 0 {
		errs = append(errs, "Orders: Missing Orders")
	}
	for i, order := range env.Orders {
		if order.ID == "" {
			errs = append(errs, fmt.Sprintf("Orders: Missing Orders[%d].ID", i))
		}
		if order.TransactionDateTime == "" {
			errs = append(errs, fmt.Sprintf("Orders: Missing Orders[%d].TransactionDateTime", i))
		} else if _, ok := parseEventTime(order.TransactionDateTime); !ok {
			errs = append(errs, fmt.Sprintf("Orders: Invalid Orders[%d].TransactionDateTime %q", i, order.TransactionDateTime))
		}
		if order.Provider == nil {
			errs = append(errs, fmt.Sprintf("Orders: Missing Orders[%d].Provider", i))
		}
		if order.Procedure.Code == "" && order.Procedure.Description == "" {
			errs = append(errs, fmt.Sprintf("Orders: Missing Orders[%d].Procedure", i))
		}
	}

	return errs
}
