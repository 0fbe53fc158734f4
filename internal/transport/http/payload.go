package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"bookofh-service/internal/domain"
)

// questionID accepts both `"q_spend_12mo"` and `7` on the wire.
type questionID string

func (id *questionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = questionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question_id must be a string or a number")
	}
	*id = questionID(n.String())
	return nil
}

// answerPayload uses pointers so absent fields can be told apart from empty ones.
type answerPayload struct {
	QuestionID      *questionID `json:"question_id"`
	QuestionText    *string     `json:"question_text"`
	SelectedOptions *[]string   `json:"selected_options"`
}

type submitRequest struct {
	UserID  *string          `json:"user_id"`
	Answers *[]answerPayload `json:"answers"`
}

var errMissingField = errors.New("missing field")

func (r submitRequest) validate() error {
	if r.UserID == nil || *r.UserID == "" {
		return fmt.Errorf("%w: user_id", errMissingField)
	}
	if r.Answers == nil {
		return fmt.Errorf("%w: answers", errMissingField)
	}
	for i, a := range *r.Answers {
		switch {
		case a.QuestionID == nil:
			return fmt.Errorf("%w: answers[%d].question_id", errMissingField, i)
		case a.QuestionText == nil:
			return fmt.Errorf("%w: answers[%d].question_text", errMissingField, i)
		case a.SelectedOptions == nil:
			return fmt.Errorf("%w: answers[%d].selected_options", errMissingField, i)
		}
	}
	return nil
}

// toDomain is lenient: absent fields become zero values.
func toDomain(in []answerPayload) []domain.Answer {
	out := make([]domain.Answer, 0, len(in))
	for _, a := range in {
		var answer domain.Answer
		if a.QuestionID != nil {
			answer.QuestionID = string(*a.QuestionID)
		}
		if a.QuestionText != nil {
			answer.QuestionText = *a.QuestionText
		}
		if a.SelectedOptions != nil {
			answer.SelectedOptions = append([]string(nil), (*a.SelectedOptions)...)
		}
		out = append(out, answer)
	}
	return out
}

type submitResponse struct {
	Message         string             `json:"message"`
	QuestionnaireID string             `json:"questionnaire_id"`
	Score           int                `json:"score"`
	Band            string             `json:"band"`
	CategoryScores  map[string]float64 `json:"category_scores"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
