package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookofh-service/internal/app"
	"bookofh-service/internal/domain"
	"bookofh-service/internal/infra/memory"
	"bookofh-service/internal/scoring"
	"github.com/rs/zerolog"
)

func TestSubmitScoresAndStores(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	q, err := service.Submit(ctx, "u1", []domain.Answer{
		{QuestionID: "q_spend_12mo", QuestionText: "Spend in the last 12 months", SelectedOptions: []string{"$15,000 – $40,000"}},
		{QuestionID: "purchase_mix", QuestionText: "What do you buy?", SelectedOptions: []string{"home", "fine_jewellery_watches"}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// spend 20/30*30 = 20, purchase mix 7/20*20 = 7
	if q.Score != 27 || q.Band != "Beginner" {
		t.Fatalf("expected 27/Beginner, got %d/%s", q.Score, q.Band)
	}
	if q.CategoryScores["spend_12mo"] != 20 || q.CategoryScores["purchase_mix"] != 7 {
		t.Fatalf("unexpected category scores: %+v", q.CategoryScores)
	}
	if q.ID == "" {
		t.Fatalf("expected questionnaire id")
	}

	stored, err := service.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != q.ID || len(stored.Answers) != 2 || stored.Answers[1].SelectedOptions[1] != "fine_jewellery_watches" {
		t.Fatalf("stored questionnaire mismatch: %+v", stored)
	}
}

func TestResubmitKeepsIDAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, app.WithClock(func() time.Time { return now }))

	first, err := service.Submit(ctx, "u1", []domain.Answer{{QuestionID: "q_store_vibe", SelectedOptions: []string{"Initial"}}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	now = now.Add(time.Hour)
	second, err := service.Submit(ctx, "u1", []domain.Answer{{QuestionID: "q_store_vibe", SelectedOptions: []string{"patient_engaged"}}})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same questionnaire id, got %s and %s", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at preserved, got %v vs %v", second.CreatedAt, first.CreatedAt)
	}
	if !second.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, second.UpdatedAt)
	}
	if second.Answers[0].SelectedOptions[0] != "patient_engaged" || second.Score != 10 {
		t.Fatalf("expected updated answers and score, got %+v", second)
	}
}

func TestSubmitEmptyAnswers(t *testing.T) {
	service, _ := newTestService(t)

	q, err := service.Submit(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if q.Score != 0 || q.Band != "Beginner" || q.Answers == nil || len(q.Answers) != 0 {
		t.Fatalf("expected empty Beginner questionnaire, got %+v", q)
	}
}

func TestSubmitRequiresKnownUser(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, err := service.Submit(ctx, "ghost", nil)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	_, err = service.Submit(ctx, "", nil)
	if !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected invalid submission, got %v", err)
	}
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.Get(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, err := service.Get(ctx, "u1"); !errors.Is(err, domain.ErrQuestionnaireNotFound) {
		t.Fatalf("expected questionnaire not found, got %v", err)
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	ctx := context.Background()
	service, locks := newTestService(t)

	release, err := locks.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := service.Submit(ctx, "u1", nil); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}
	release()

	if _, err := service.Submit(ctx, "u1", nil); err != nil {
		t.Fatalf("expected submit after release, got %v", err)
	}
}

func TestConcurrentSubmissionsStoreOneQuestionnaire(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Submit(ctx, "u1", []domain.Answer{{QuestionID: "q_tester_bag", SelectedOptions: []string{"Yes"}}}); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, domain.ErrSubmissionInProgress) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() == 0 {
		t.Fatalf("expected at least one submission to succeed")
	}
	q, err := service.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Score != 3 {
		t.Fatalf("expected score 3 (5/25*15), got %d", q.Score)
	}
}

func TestPreviewDoesNotStore(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	res := service.Preview([]domain.Answer{{QuestionID: "q_spend_12mo", SelectedOptions: []string{"40000_plus"}}})
	if res.TotalScore != 30 {
		t.Fatalf("expected preview score 30, got %d", res.TotalScore)
	}
	if _, err := service.Get(ctx, "u1"); !errors.Is(err, domain.ErrQuestionnaireNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}

	_, trace := service.Explain([]domain.Answer{{QuestionID: "q_spend_12mo", SelectedOptions: []string{"< $5,000"}}})
	if len(trace) != 1 || trace[0].Code != "lt_5000" || trace[0].Rule != scoring.RuleLegacy {
		t.Fatalf("unexpected trace: %+v", trace)
	}
}

func newTestService(t *testing.T, opts ...app.Option) (*app.QuestionnaireService, *memory.SubmissionLocker) {
	t.Helper()
	users := memory.NewUserDirectory(domain.User{ID: "u1", Email: "alice@example.com"})
	locks := memory.NewSubmissionLocker()
	engine := scoring.NewEngine(scoring.Reference())
	return app.NewQuestionnaireService(engine, users, memory.NewQuestionnaireStore(), locks, zerolog.Nop(), opts...), locks
}
