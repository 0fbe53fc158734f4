package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookofh-service/internal/domain"
	"bookofh-service/internal/scoring"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserDirectory answers whether a user account exists.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// QuestionnaireStore persists one questionnaire per user (in-memory, Postgres, cached, etc).
type QuestionnaireStore interface {
	// GetByUser returns domain.ErrQuestionnaireNotFound when nothing is stored.
	GetByUser(ctx context.Context, userID string) (domain.Questionnaire, error)
	// Save inserts or replaces the questionnaire of q.UserID.
	Save(ctx context.Context, q domain.Questionnaire) (domain.Questionnaire, error)
}

// SubmissionLocker serializes writes per user. Acquire fails with
// domain.ErrSubmissionInProgress when the user's lock is already held.
type SubmissionLocker interface {
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

// QuestionnaireService contains the questionnaire use cases.
type QuestionnaireService struct {
	engine *scoring.Engine
	users  UserDirectory
	store  QuestionnaireStore
	locks  SubmissionLocker
	log    zerolog.Logger
	now    func() time.Time
}

// Option customizes a QuestionnaireService.
type Option func(*QuestionnaireService)

// WithClock overrides time.Now for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuestionnaireService) { s.now = now }
}

func NewQuestionnaireService(engine *scoring.Engine, users UserDirectory, store QuestionnaireStore, locks SubmissionLocker, log zerolog.Logger, opts ...Option) *QuestionnaireService {
	s := &QuestionnaireService{
		engine: engine,
		users:  users,
		store:  store,
		locks:  locks,
		log:    log.With().Str("component", "questionnaire").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit scores the answers and stores them as the user's questionnaire.
// A resubmission keeps the questionnaire ID and creation time.
func (s *QuestionnaireService) Submit(ctx context.Context, userID string, answers []domain.Answer) (domain.Questionnaire, error) {
	if userID == "" {
		return domain.Questionnaire{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidSubmission)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return domain.Questionnaire{}, err
	}

	release, err := s.locks.Acquire(ctx, userID)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	defer release()

	if answers == nil {
		answers = []domain.Answer{}
	}
	result := s.engine.Score(answers)

	now := s.now().UTC()
	q := domain.Questionnaire{
		ID:             uuid.NewString(),
		UserID:         userID,
		Answers:        answers,
		Score:          result.TotalScore,
		Band:           result.Band,
		CategoryScores: result.Categories,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := s.store.GetByUser(ctx, userID)
	switch {
	case err == nil:
		q.ID = existing.ID
		q.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrQuestionnaireNotFound):
		return domain.Questionnaire{}, fmt.Errorf("load questionnaire: %w", err)
	}

	saved, err := s.store.Save(ctx, q)
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("save questionnaire: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("questionnaire_id", saved.ID).
		Int("answers", len(answers)).
		Int("score", saved.Score).
		Str("band", saved.Band).
		Msg("questionnaire scored")
	return saved, nil
}

// Get returns the stored questionnaire of a user.
func (s *QuestionnaireService) Get(ctx context.Context, userID string) (domain.Questionnaire, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return domain.Questionnaire{}, err
	}
	return s.store.GetByUser(ctx, userID)
}

// Preview scores answers without storing anything.
func (s *QuestionnaireService) Preview(answers []domain.Answer) scoring.Result {
	return s.engine.Score(answers)
}

// Explain is Preview plus the per-option resolution trace.
func (s *QuestionnaireService) Explain(answers []domain.Answer) (scoring.Result, []scoring.OptionTrace) {
	return s.engine.Explain(answers)
}

func (s *QuestionnaireService) requireUser(ctx context.Context, userID string) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}
