package feedback

import (
	"context"
	"fmt"
	"strings"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/apperr"
	"nexus_server/pkg/logger"
)

// ErrorPrefix starts every failure message returned to callers.
const ErrorPrefix = "Failed to get AI feedback"

const promptTemplate = `As an expert interview coach, analyze the following user's answer to a specific interview question.

The interview question was:
"%s"

The user's spoken answer was:
"%s"

Provide concise, constructive feedback in three specific areas:
1.  **Clarity and Structure:** Was the answer clear and well-structured?
2.  **Content and Relevance:** Did the answer directly address the question?
3.  **Delivery and Confidence:** Identify potential filler words or lack of confidence.
You must provide your feedback in exactly one single paragraph of no more than 100 words.
Format your response in Markdown.
`

func BuildPrompt(question, answer string) string {
	return fmt.Sprintf(promptTemplate, question, answer)
}

// Analyzer critiques interview answers with the startup-selected model.
type Analyzer struct {
	lm    out.LanguageModel
	model domain.ModelSelection
}

func NewAnalyzer(lm out.LanguageModel, model domain.ModelSelection) *Analyzer {
	return &Analyzer{lm: lm, model: model}
}

func (a *Analyzer) Analyze(ctx context.Context, question, answer string) (*domain.Feedback, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperr.MissingField("question")
	}
	if strings.TrimSpace(answer) == "" {
		return nil, apperr.MissingField("answer")
	}

	log := logger.WithContext(ctx).WithField("model", a.model.Name)
	log.Debug("[Analyzer.Analyze] sending prompt")

	// nil config: backend default sampling
	text, err := a.lm.Generate(ctx, a.model.Name, BuildPrompt(question, answer), nil)
	if err != nil {
		log.WithError(err).Error("[Analyzer.Analyze] model call failed")
		return nil, apperr.ModelError(ErrorPrefix, err)
	}

	return &domain.Feedback{Text: text}, nil
}
