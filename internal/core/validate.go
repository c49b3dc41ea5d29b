package core

// validate.go classifies a normalization result for the caller: which
// records are usable, which problems block a record and which are only
// informational. Nothing here throws; the report is always returned.

import "fmt"

// IssueSeverity distinguishes blocking errors from warnings.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue describes one problem found in a normalization result.
type ValidationIssue struct {
	RecordID string        `json:"recordId,omitempty"`
	Field    string        `json:"field,omitempty"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ValidationReport aggregates validation over a whole result.
type ValidationReport struct {
	TotalRecords   int               `json:"totalRecords"`
	ValidRecords   int               `json:"validRecords"`
	InvalidRecords int               `json:"invalidRecords"`
	Errors         []ValidationIssue `json:"errors"`
	Warnings       []ValidationIssue `json:"warnings"`
}

// Validate inspects a normalization result. A record missing its id is
// invalid; a record that fell back to the sentinel owner or status gets
// a warning but stays valid. Every accumulated transform error is also
// surfaced as a validation error.
func Validate(result NormalizeResult) ValidationReport {
	report := ValidationReport{
		TotalRecords: len(result.Records),
		Errors:       []ValidationIssue{},
		Warnings:     []ValidationIssue{},
	}

	for _, rec := range result.Records {
		valid := true

		if rec.ID == "" {
			valid = false
			report.Errors = append(report.Errors, ValidationIssue{
				Field:    TargetID,
				Severity: SeverityError,
				Message:  "record has no id",
			})
		}
		if rec.OwnerID == "" || rec.OwnerID == UnassignedOwner {
			report.Warnings = append(report.Warnings, ValidationIssue{
				RecordID: rec.ID,
				Field:    TargetOwnerID,
				Severity: SeverityWarning,
				Message:  "record has no owner",
			})
		}
		if rec.Status == "" || rec.Status == UnknownStatus {
			report.Warnings = append(report.Warnings, ValidationIssue{
				RecordID: rec.ID,
				Field:    TargetStatus,
				Severity: SeverityWarning,
				Message:  "record has no status",
			})
		}

		if valid {
			report.ValidRecords++
		} else {
			report.InvalidRecords++
		}
	}

	for _, te := range result.Errors {
		report.Errors = append(report.Errors, ValidationIssue{
			Field:    te.Field,
			Severity: SeverityError,
			Message:  fmt.Sprintf("row %d: %s", te.Row, te.Message),
		})
	}

	return report
}
