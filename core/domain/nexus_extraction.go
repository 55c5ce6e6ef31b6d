package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExtractedRecord is the validated model output for one email.
// Raw fields mirror the JSON keys; InterviewDate and Type are the parsed forms.
type ExtractedRecord struct {
	CompanyName      *string `json:"companyName"`
	Role             *string `json:"role"`
	InterviewDateUTC *string `json:"interviewDateUTC"`
	InterviewTypeRaw *string `json:"interviewType"`

	InterviewDate *time.Time    `json:"-"`
	Type          InterviewType `json:"-"`
}

// HasCompany reports whether the model identified a company.
func (r *ExtractedRecord) HasCompany() bool {
	return r != nil && r.CompanyName != nil && strings.TrimSpace(*r.CompanyName) != ""
}

// FailureReason classifies why extraction produced no record.
type FailureReason string

const (
	FailureModelCall      FailureReason = "model_call"
	FailureEmptyResponse  FailureReason = "empty_response"
	FailureInvalidJSON    FailureReason = "invalid_json"
	FailureMissingKey     FailureReason = "missing_key"
	FailureInvalidField   FailureReason = "invalid_field"
	FailureInvalidDate    FailureReason = "invalid_date"
	FailureInvalidType    FailureReason = "invalid_type"
	FailureEmptyInputText FailureReason = "empty_input"
)

// ExtractionResult is either a record or a failure reason, never both.
type ExtractionResult struct {
	record *ExtractedRecord
	reason FailureReason
	err    error
}

func ExtractionSuccess(rec *ExtractedRecord) ExtractionResult {
	return ExtractionResult{record: rec}
}

func ExtractionFailure(reason FailureReason, err error) ExtractionResult {
	return ExtractionResult{reason: reason, err: err}
}

func (r ExtractionResult) OK() bool                { return r.record != nil }
func (r ExtractionResult) Record() *ExtractedRecord { return r.record }
func (r ExtractionResult) Reason() FailureReason    { return r.reason }
func (r ExtractionResult) Err() error               { return r.err }

func (r ExtractionResult) String() string {
	if r.OK() {
		return "success"
	}
	if r.err != nil {
		return fmt.Sprintf("failure(%s): %v", r.reason, r.err)
	}
	return fmt.Sprintf("failure(%s)", r.reason)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISO8601 parses an ISO-8601 timestamp and returns it in UTC.
// A trailing "Z" is UTC; values without an offset are taken as UTC.
func ParseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}
