package domain

import "time"

// User is the subset of the account record the questionnaire flow relies on.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Answer is a single submitted questionnaire answer.
// QuestionText is kept for auditing and never consulted by scoring.
type Answer struct {
	QuestionID      string   `json:"question_id"`
	QuestionText    string   `json:"question_text"`
	SelectedOptions []string `json:"selected_options"`
}

// Questionnaire is the stored submission of a user together with its score.
type Questionnaire struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	Answers        []Answer           `json:"answers"`
	Score          int                `json:"score"`
	Band           string             `json:"band"`
	CategoryScores map[string]float64 `json:"category_scores"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
