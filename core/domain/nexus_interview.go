package domain

import (
	"strings"
	"time"
)

// InterviewType is the fixed set of interview kinds.
type InterviewType string

const (
	InterviewBehavioral InterviewType = "Behavioral"
	InterviewTechnical  InterviewType = "Technical"
	InterviewCase       InterviewType = "Case"
	InterviewScreening  InterviewType = "Screening"
	InterviewUnknown    InterviewType = "Unknown"
)

// InterviewTypes lists the enumeration in prompt order.
var InterviewTypes = []InterviewType{
	InterviewBehavioral,
	InterviewTechnical,
	InterviewCase,
	InterviewScreening,
	InterviewUnknown,
}

// ParseInterviewType matches s against the enumeration, ignoring case and
// surrounding whitespace.
func ParseInterviewType(s string) (InterviewType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range InterviewTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

func (t InterviewType) Valid() bool {
	_, ok := ParseInterviewType(string(t))
	return ok
}

// Interview is a persisted interview extracted from an email.
type Interview struct {
	ID              int64         `json:"id" db:"id"`
	UserID          int64         `json:"user_id" db:"user_id"`
	CompanyName     string        `json:"company_name" db:"company_name"`
	RoleTitle       string        `json:"role_title" db:"role_title"`
	InterviewDate   *time.Time    `json:"interview_date" db:"interview_date"`
	InterviewType   InterviewType `json:"interview_type" db:"interview_type"`
	SourceMessageID string        `json:"source_message_id,omitempty" db:"source_message_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

// DedupKey identifies equivalent interviews: same owner, company and role.
type DedupKey struct {
	UserID      int64
	CompanyName string
	RoleTitle   string
}

func (i *Interview) Key() DedupKey {
	return DedupKey{UserID: i.UserID, CompanyName: i.CompanyName, RoleTitle: i.RoleTitle}
}

// NewInterview builds the row for an extracted record owned by userID.
// A missing role is stored as the empty string and a missing type as Unknown.
func NewInterview(userID int64, rec *ExtractedRecord, messageID string) *Interview {
	iv := &Interview{
		UserID:          userID,
		InterviewType:   InterviewUnknown,
		SourceMessageID: messageID,
	}
	if rec.CompanyName != nil {
		iv.CompanyName = strings.TrimSpace(*rec.CompanyName)
	}
	if rec.Role != nil {
		iv.RoleTitle = strings.TrimSpace(*rec.Role)
	}
	if rec.InterviewDate != nil {
		d := rec.InterviewDate.UTC()
		iv.InterviewDate = &d
	}
	if rec.Type != "" {
		iv.InterviewType = rec.Type
	}
	return iv
}
