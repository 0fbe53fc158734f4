package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bookofh-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionnaireStore keeps one questionnaire row per user; answers and
// category scores are stored as JSONB.
type QuestionnaireStore struct {
	pool *pgxpool.Pool
}

func NewQuestionnaireStore(pool *pgxpool.Pool) *QuestionnaireStore {
	return &QuestionnaireStore{pool: pool}
}

func (s *QuestionnaireStore) GetByUser(ctx context.Context, userID string) (domain.Questionnaire, error) {
	var (
		q              domain.Questionnaire
		answers        []byte
		categoryScores []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, answers, score, band, category_scores, created_at, updated_at
		FROM questionnaires WHERE user_id=$1`, userID,
	).Scan(&q.ID, &q.UserID, &answers, &q.Score, &q.Band, &categoryScores, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Questionnaire{}, domain.ErrQuestionnaireNotFound
	}
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("load questionnaire: %w", err)
	}
	if err := json.Unmarshal(answers, &q.Answers); err != nil {
		return domain.Questionnaire{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(categoryScores, &q.CategoryScores); err != nil {
		return domain.Questionnaire{}, fmt.Errorf("unmarshal category scores: %w", err)
	}
	return q, nil
}

// Save upserts on user_id. An existing row keeps its id and created_at.
func (s *QuestionnaireStore) Save(ctx context.Context, q domain.Questionnaire) (domain.Questionnaire, error) {
	if q.Answers == nil {
		q.Answers = []domain.Answer{}
	}
	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("marshal answers: %w", err)
	}
	categoryScores, err := json.Marshal(q.CategoryScores)
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("marshal category scores: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO questionnaires (id, user_id, answers, score, band, category_scores, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6::jsonb, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			answers = EXCLUDED.answers,
			score = EXCLUDED.score,
			band = EXCLUDED.band,
			category_scores = EXCLUDED.category_scores,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		q.ID, q.UserID, string(answers), q.Score, q.Band, string(categoryScores), q.CreatedAt, q.UpdatedAt,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("save questionnaire: %w", err)
	}
	return q, nil
}
