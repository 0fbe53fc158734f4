// Package scoring converts questionnaire answers into a weighted 0-100
// profile score and a qualitative band.
//
// The engine is a pure function of its Config and the submitted answers.
// It holds no mutable state and is safe for concurrent use.
package scoring

import (
	"errors"
	"fmt"
	"sort"
)

// SchemaVersion is the only table layout the loader accepts: code-keyed
// points tables with legacy display text resolved by ResolveOption.
const SchemaVersion = 2

// Range is an inclusive integer interval.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Band names a score interval.
type Band struct {
	Name string `yaml:"name" json:"name"`
	Min  int    `yaml:"min" json:"min"`
	Max  int    `yaml:"max" json:"max"`
}

// Contains reports whether score falls within the band (inclusive).
func (b Band) Contains(score int) bool {
	return b.Min <= score && score <= b.Max
}

// Category is a weighted group of questions.
type Category struct {
	Label  string `yaml:"label" json:"label"`
	Weight int    `yaml:"weight" json:"weight"`
}

// Question maps canonical option codes to signed points.
// MaxPoints is the declared normalization denominator; it is not derived
// from Points so negative entries never lower it.
type Question struct {
	Category  string         `yaml:"category" json:"category"`
	Points    map[string]int `yaml:"points" json:"points"`
	MaxPoints int            `yaml:"max_points" json:"max_points"`
}

// Config is the scoring table. Treat it as immutable once handed to NewEngine.
type Config struct {
	Schema     int                 `yaml:"schema" json:"schema"`
	Name       string              `yaml:"name" json:"name"`
	Version    string              `yaml:"version" json:"version"`
	ScoreRange Range               `yaml:"score_range" json:"score_range"`
	Bands      []Band              `yaml:"bands" json:"bands"`
	Categories map[string]Category `yaml:"categories" json:"categories"`
	Questions  map[string]Question `yaml:"questions" json:"questions"`
}

// CategoryMax sums MaxPoints per category. Categories without questions map to 0.
func (c *Config) CategoryMax() map[string]int {
	totals := make(map[string]int, len(c.Categories))
	for id := range c.Categories {
		totals[id] = 0
	}
	for _, q := range c.Questions {
		if _, ok := totals[q.Category]; ok {
			totals[q.Category] += q.MaxPoints
		}
	}
	return totals
}

// CategoryIDs returns the category ids in sorted order.
func (c *Config) CategoryIDs() []string {
	ids := make([]string, 0, len(c.Categories))
	for id := range c.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WeightSum adds up all category weights.
func (c *Config) WeightSum() int {
	sum := 0
	for _, cat := range c.Categories {
		sum += cat.Weight
	}
	return sum
}

// Validate checks the structural invariants of the table: the schema
// version, that every question belongs to a known category, and that the
// bands tile the score range without gaps or overlaps. The weight sum is
// left to the caller (see Warnings).
func (c *Config) Validate() error {
	var errs []error
	if c.Schema != SchemaVersion {
		errs = append(errs, fmt.Errorf("unsupported schema version %d (want %d)", c.Schema, SchemaVersion))
	}
	if c.ScoreRange.Min > c.ScoreRange.Max {
		errs = append(errs, fmt.Errorf("score range min %d exceeds max %d", c.ScoreRange.Min, c.ScoreRange.Max))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("no categories configured"))
	}

	qids := make([]string, 0, len(c.Questions))
	for id := range c.Questions {
		qids = append(qids, id)
	}
	sort.Strings(qids)
	for _, id := range qids {
		q := c.Questions[id]
		if _, ok := c.Categories[q.Category]; !ok {
			errs = append(errs, fmt.Errorf("question %q references unknown category %q", id, q.Category))
		}
		if q.MaxPoints < 0 {
			errs = append(errs, fmt.Errorf("question %q has negative max_points %d", id, q.MaxPoints))
		}
	}

	if err := c.validateBands(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) validateBands() error {
	if len(c.Bands) == 0 {
		return errors.New("no bands configured")
	}
	bands := make([]Band, len(c.Bands))
	copy(bands, c.Bands)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })

	next := c.ScoreRange.Min
	for _, b := range bands {
		if b.Min > b.Max {
			return fmt.Errorf("band %q has min %d above max %d", b.Name, b.Min, b.Max)
		}
		if b.Min != next {
			return fmt.Errorf("band %q starts at %d, expected %d (gap or overlap)", b.Name, b.Min, next)
		}
		next = b.Max + 1
	}
	if next-1 != c.ScoreRange.Max {
		return fmt.Errorf("bands end at %d, score range ends at %d", next-1, c.ScoreRange.Max)
	}
	return nil
}

// Warnings lists soft problems that do not stop the engine from running.
func (c *Config) Warnings() []string {
	var out []string
	if sum := c.WeightSum(); sum != 100 {
		out = append(out, fmt.Sprintf("category weights sum to %d, not 100", sum))
	}
	totals := c.CategoryMax()
	for _, id := range c.CategoryIDs() {
		if totals[id] == 0 {
			out = append(out, fmt.Sprintf("category %q has no scorable questions and always contributes 0", id))
		}
	}
	return out
}

// clone returns a deep copy so the engine never shares maps with the caller.
func (c *Config) clone() *Config {
	out := &Config{
		Schema:     c.Schema,
		Name:       c.Name,
		Version:    c.Version,
		ScoreRange: c.ScoreRange,
		Bands:      append([]Band(nil), c.Bands...),
		Categories: make(map[string]Category, len(c.Categories)),
		Questions:  make(map[string]Question, len(c.Questions)),
	}
	for id, cat := range c.Categories {
		out.Categories[id] = cat
	}
	for id, q := range c.Questions {
		points := make(map[string]int, len(q.Points))
		for code, p := range q.Points {
			points[code] = p
		}
		out.Questions[id] = Question{Category: q.Category, Points: points, MaxPoints: q.MaxPoints}
	}
	return out
}
