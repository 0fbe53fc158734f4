package scoring

import (
	"math"
	"strings"

	"bookofh-service/internal/domain"
)

// Result is the scored form of one submission.
type Result struct {
	TotalScore int                `json:"score"`
	Band       string             `json:"band"`
	Categories map[string]float64 `json:"category_scores"`
	// RawCategories holds the unnormalized point totals per category.
	RawCategories map[string]int `json:"raw_category_scores,omitempty"`
}

// OptionTrace records how one selected option was scored.
type OptionTrace struct {
	QuestionID string `json:"question_id"`
	Selected   string `json:"selected"`
	Resolution
	Points int `json:"points"`
}

// Engine scores questionnaires against a fixed Config.
type Engine struct {
	cfg *Config
}

// NewEngine copies cfg; later changes to cfg do not reach the engine.
func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg.clone()}
}

// Config returns a copy of the table the engine scores with.
func (e *Engine) Config() *Config {
	return e.cfg.clone()
}

// Score never fails: unknown questions, empty selections and unreadable
// options contribute nothing.
func (e *Engine) Score(answers []domain.Answer) Result {
	raw, _ := e.accumulate(answers, false)
	return e.aggregate(raw)
}

// Explain scores answers and also returns the per-option resolution trace.
func (e *Engine) Explain(answers []domain.Answer) (Result, []OptionTrace) {
	raw, trace := e.accumulate(answers, true)
	return e.aggregate(raw), trace
}

// lookupQuestion accepts both "spend_12mo" and "q_spend_12mo".
func (e *Engine) lookupQuestion(id string) (Question, bool) {
	if q, ok := e.cfg.Questions[id]; ok {
		return q, true
	}
	if !strings.HasPrefix(id, "q_") {
		if q, ok := e.cfg.Questions["q_"+id]; ok {
			return q, true
		}
	}
	return Question{}, false
}

func (e *Engine) accumulate(answers []domain.Answer, trace bool) (map[string]int, []OptionTrace) {
	raw := make(map[string]int, len(e.cfg.Categories))
	for id := range e.cfg.Categories {
		raw[id] = 0
	}

	var traces []OptionTrace
	for _, answer := range answers {
		q, ok := e.lookupQuestion(answer.QuestionID)
		if !ok || len(answer.SelectedOptions) == 0 {
			continue
		}
		if _, ok := raw[q.Category]; !ok {
			continue
		}
		for _, selected := range answer.SelectedOptions {
			res := Resolve(q.Points, selected)
			points := q.Points[res.Code]
			raw[q.Category] += points
			if trace {
				traces = append(traces, OptionTrace{
					QuestionID: answer.QuestionID,
					Selected:   selected,
					Resolution: res,
					Points:     points,
				})
			}
		}
	}
	return raw, traces
}

func (e *Engine) aggregate(raw map[string]int) Result {
	categoryMax := e.cfg.CategoryMax()
	contributions := make(map[string]float64, len(e.cfg.Categories))

	total := 0.0
	for _, id := range e.cfg.CategoryIDs() {
		denom := categoryMax[id]
		if denom <= 0 {
			contributions[id] = 0
			continue
		}
		contrib := float64(raw[id]) / float64(denom) * float64(e.cfg.Categories[id].Weight)
		total += contrib
		contributions[id] = round2(contrib)
	}

	score := clamp(int(math.RoundToEven(total)), e.cfg.ScoreRange.Min, e.cfg.ScoreRange.Max)
	return Result{
		TotalScore:    score,
		Band:          e.band(score),
		Categories:    contributions,
		RawCategories: raw,
	}
}

// band falls back to the first configured band when no range matches.
func (e *Engine) band(score int) string {
	for _, b := range e.cfg.Bands {
		if b.Contains(score) {
			return b.Name
		}
	}
	if len(e.cfg.Bands) > 0 {
		return e.cfg.Bands[0].Name
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
