package domain

// FeedbackRequest is an interview question and the candidate's answer.
type FeedbackRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Feedback struct {
	Text string `json:"feedback"`
}

// ModelSource records which selection rule picked a model.
type ModelSource string

const (
	ModelFromPreferred ModelSource = "preferred"
	ModelFromFast      ModelSource = "fast"
	ModelFromPro       ModelSource = "pro"
	ModelFromFirst     ModelSource = "first"
	ModelFromFallback  ModelSource = "fallback"
)

// ModelSelection is the language model chosen once at startup.
type ModelSelection struct {
	Name   string      `json:"name"`
	Source ModelSource `json:"source"`
}
