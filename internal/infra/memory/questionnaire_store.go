package memory

import (
	"context"
	"sync"

	"bookofh-service/internal/domain"
)

// QuestionnaireStore is an in-memory implementation of app.QuestionnaireStore.
type QuestionnaireStore struct {
	mu     sync.RWMutex
	byUser map[string]domain.Questionnaire
}

func NewQuestionnaireStore() *QuestionnaireStore {
	return &QuestionnaireStore{
		byUser: make(map[string]domain.Questionnaire),
	}
}

func (s *QuestionnaireStore) GetByUser(_ context.Context, userID string) (domain.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byUser[userID]
	if !ok {
		return domain.Questionnaire{}, domain.ErrQuestionnaireNotFound
	}
	return copyQuestionnaire(q), nil
}

func (s *QuestionnaireStore) Save(_ context.Context, q domain.Questionnaire) (domain.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byUser[q.UserID]; ok {
		q.ID = existing.ID
		q.CreatedAt = existing.CreatedAt
	}
	s.byUser[q.UserID] = copyQuestionnaire(q)
	return copyQuestionnaire(q), nil
}

// copyQuestionnaire keeps callers from mutating stored slices and maps.
func copyQuestionnaire(q domain.Questionnaire) domain.Questionnaire {
	answers := make([]domain.Answer, len(q.Answers))
	for i, a := range q.Answers {
		a.SelectedOptions = append([]string(nil), a.SelectedOptions...)
		answers[i] = a
	}
	q.Answers = answers
	if q.CategoryScores != nil {
		scores := make(map[string]float64, len(q.CategoryScores))
		for k, v := range q.CategoryScores {
			scores[k] = v
		}
		q.CategoryScores = scores
	}
	return q
}
