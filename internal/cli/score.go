package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"bookofh-service/internal/config"
	"bookofh-service/internal/domain"
	"bookofh-service/internal/scoring"
	"github.com/spf13/cobra"
)

// NewScoreCmd scores an answers file offline.
func NewScoreCmd(configPath *string) *cobra.Command {
	var (
		answersPath string
		scoringPath string
		explain     bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScoringConfig(*configPath, scoringPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(answersPath)
			if err != nil {
				return fmt.Errorf("read answers: %w", err)
			}
			answers, err := decodeAnswers(data)
			if err != nil {
				return err
			}

			engine := scoring.NewEngine(cfg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !explain {
				return enc.Encode(engine.Score(answers))
			}
			res, trace := engine.Explain(answers)
			return enc.Encode(struct {
				scoring.Result
				Trace []scoring.OptionTrace `json:"trace"`
			}{res, trace})
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to a JSON answers file")
	cmd.Flags().StringVar(&scoringPath, "scoring", "", "path to a YAML scoring table (overrides config)")
	cmd.Flags().BoolVar(&explain, "explain", false, "include how each option was resolved")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// decodeAnswers accepts a bare answers array or an object with an "answers" field.
func decodeAnswers(data []byte) ([]domain.Answer, error) {
	var answers []domain.Answer
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		return answers, nil
	}
	var doc struct {
		Answers []domain.Answer `json:"answers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return doc.Answers, nil
}

// loadScoringConfig prefers an explicit table path, then the service config's
// scoring.path, then the built-in reference table. A missing service config
// file is not an error here.
func loadScoringConfig(configPath, scoringPath string) (*scoring.Config, error) {
	if scoringPath != "" {
		return scoring.Load(scoringPath)
	}
	cfg, err := config.Load(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return scoring.Load(cfg.Scoring.Path)
}
