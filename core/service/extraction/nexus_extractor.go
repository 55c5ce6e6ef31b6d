package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"
)

// Keys the model must return. interviewType may be omitted.
const (
	keyCompany = "companyName"
	keyRole    = "role"
	keyDate    = "interviewDateUTC"
	keyType    = "interviewType"
)

var requiredKeys = []string{keyCompany, keyRole, keyDate}

// SamplingConfig favors short deterministic JSON output.
var SamplingConfig = out.GenerationConfig{
	Temperature:     0.1,
	TopP:            0.95,
	TopK:            64,
	MaxOutputTokens: 2048,
}

const promptTemplate = `You are an expert system that extracts interview details from emails.
Analyze the following email content and return a JSON object with these exact keys:
"companyName", "role", "interviewDateUTC", "interviewType".

Rules:
- The interviewType must be one of: %s.
- The interviewDateUTC must be in ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ). Convert to UTC if a timezone is found.
- If a value is not found, set it to null.
- RETURN ONLY PURE JSON. NO MARKDOWN.

Email Content:
---
%s
---
`

// BuildPrompt renders the extraction instruction for one email body.
func BuildPrompt(emailText string) string {
	quoted := make([]string, len(domain.InterviewTypes))
	for i, t := range domain.InterviewTypes {
		quoted[i] = "'" + string(t) + "'"
	}
	return fmt.Sprintf(promptTemplate, strings.Join(quoted, ", "), emailText)
}

// Extractor turns free-text emails into interview records.
type Extractor struct {
	lm    out.LanguageModel
	model domain.ModelSelection
}

func NewExtractor(lm out.LanguageModel, model domain.ModelSelection) *Extractor {
	return &Extractor{lm: lm, model: model}
}

// Extract never returns an error: every failure is logged and reported as a Failure result.
func (e *Extractor) Extract(ctx context.Context, emailText string) domain.ExtractionResult {
	log := logger.WithContext(ctx).WithField("model", e.model.Name)

	if strings.TrimSpace(emailText) == "" {
		return fail(log, domain.FailureEmptyInputText, nil)
	}

	cfg := SamplingConfig
	text, err := e.lm.Generate(ctx, e.model.Name, BuildPrompt(emailText), &cfg)
	if err != nil {
		return fail(log, domain.FailureModelCall, err)
	}

	rec, reason, err := ParseResponse(text)
	if err != nil {
		return fail(log, reason, err)
	}
	return domain.ExtractionSuccess(rec)
}

func fail(log *logger.Logger, reason domain.FailureReason, err error) domain.ExtractionResult {
	log.WithError(err).WithField("reason", string(reason)).Warn("[Extractor.Extract] no record produced")
	return domain.ExtractionFailure(reason, err)
}

// StripFences removes a leading ```json or ``` marker and a trailing ``` marker.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ParseResponse validates raw model output against the record schema.
func ParseResponse(text string) (*domain.ExtractedRecord, domain.FailureReason, error) {
	body := StripFences(text)
	if body == "" {
		return nil, domain.FailureEmptyResponse, fmt.Errorf("model returned no text")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, domain.FailureInvalidJSON, err
	}
	if fields == nil {
		return nil, domain.FailureInvalidJSON, fmt.Errorf("response is not a JSON object")
	}

	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return nil, domain.FailureMissingKey, fmt.Errorf("missing key %q", k)
		}
	}

	rec := &domain.ExtractedRecord{Type: domain.InterviewUnknown}
	targets := []struct {
		key string
		dst **string
	}{
		{keyCompany, &rec.CompanyName},
		{keyRole, &rec.Role},
		{keyDate, &rec.InterviewDateUTC},
		{keyType, &rec.InterviewTypeRaw},
	}
	for _, t := range targets {
		v, err := nullableString(fields[t.key])
		if err != nil {
			return nil, domain.FailureInvalidField, fmt.Errorf("%s: %w", t.key, err)
		}
		*t.dst = v
	}

	if rec.InterviewDateUTC != nil && *rec.InterviewDateUTC != "" {
		ts, err := domain.ParseISO8601(*rec.InterviewDateUTC)
		if err != nil {
			return nil, domain.FailureInvalidDate, err
		}
		rec.InterviewDate = &ts
	}

	if rec.InterviewTypeRaw != nil && strings.TrimSpace(*rec.InterviewTypeRaw) != "" {
		t, ok := domain.ParseInterviewType(*rec.InterviewTypeRaw)
		if !ok {
			return nil, domain.FailureInvalidType, fmt.Errorf("unknown interview type %q", *rec.InterviewTypeRaw)
		}
		rec.Type = t
	}

	return rec, "", nil
}

// nullableString accepts a JSON string or null; an absent key is null.
func nullableString(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected string or null, got %s", raw)
	}
	return &s, nil
}
