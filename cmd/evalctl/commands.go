package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-quiz-eval/internal/config"
	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/internal/service"
)

// errMismatch signals that at least one fixture case graded differently.
var errMismatch = errors.New("fixture mismatches found")

// engineFactory builds the engine used by a command.
type engineFactory func(ctx context.Context, semantic bool) (*evaluation.Engine, error)

func newRootCommand(logger zerolog.Logger) *cobra.Command {
	return newRootCommandWith(logger, configuredEngine(logger))
}

func newRootCommandWith(logger zerolog.Logger, build engineFactory) *cobra.Command {
	root := &cobra.Command{
		Use:          "evalctl",
		Short:        "Grade quiz answers offline",
		SilenceUsage: true,
	}
	root.AddCommand(newEvaluateCommand(build), newCheckCommand(build))
	return root
}

// configuredEngine reads the GEMA_* environment. Without --semantic the
// engine is deterministic and no provider is contacted.
func configuredEngine(logger zerolog.Logger) engineFactory {
	return func(ctx context.Context, semantic bool) (*evaluation.Engine, error) {
		cfg, err := config.LoadOffline()
		if err != nil {
			return nil, err
		}
		if !semantic {
			return evaluation.NewEngine(nil, cfg.Policy(), logger), nil
		}

		judge, err := service.NewSemanticJudge(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if judge == nil {
			return nil, fmt.Errorf("--semantic requires GEMA_AI_PROVIDER to be openai or gemini")
		}
		return evaluation.NewEngine(judge, cfg.Policy(), logger), nil
	}
}

func newEvaluateCommand(build engineFactory) *cobra.Command {
	var (
		questionPath string
		answerText   string
		answerIndex  int
		semantic     bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Grade one answer against a question fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := evaluation.LoadFixture(questionPath)
			if err != nil {
				return err
			}

			answer := evaluation.TextAnswer(answerText)
			if cmd.Flags().Changed("index") {
				answer = evaluation.IndexAnswer(answerIndex)
			}

			engine, err := build(cmd.Context(), semantic)
			if err != nil {
				return err
			}

			result := engine.Evaluate(cmd.Context(), fixture.Question.Question(), answer)
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&questionPath, "question", "q", "", "question fixture (YAML or JSON)")
	cmd.Flags().StringVarP(&answerText, "answer", "a", "", "free-text answer")
	cmd.Flags().IntVarP(&answerIndex, "index", "i", 0, "selected option index")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "escalate eligible misses to the configured provider")
	_ = cmd.MarkFlagRequired("question")
	cmd.MarkFlagsOneRequired("answer", "index")
	cmd.MarkFlagsMutuallyExclusive("answer", "index")

	return cmd
}

func newCheckCommand(build engineFactory) *cobra.Command {
	var (
		dir      string
		semantic bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every fixture case and report mismatches",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := evaluation.LoadFixtureDir(dir)
			if err != nil {
				return err
			}

			engine, err := build(cmd.Context(), semantic)
			if err != nil {
				return err
			}

			report := runFixtures(cmd.Context(), engine, fixtures)
			out := cmd.OutOrStdout()
			for _, line := range report.Failures {
				fmt.Fprintln(out, "FAIL", line)
			}
			fmt.Fprintf(out, "%d/%d cases passed across %d fixtures\n", report.Passed, report.Total, len(fixtures))

			if len(report.Failures) > 0 {
				return errMismatch
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "fixtures", "f", "", "directory of question fixtures")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "escalate eligible misses to the configured provider")
	_ = cmd.MarkFlagRequired("fixtures")

	return cmd
}

type checkReport struct {
	Total    int
	Passed   int
	Failures []string
}

func runFixtures(ctx context.Context, engine *evaluation.Engine, fixtures []evaluation.Fixture) checkReport {
	var report checkReport
	for _, fixture := range fixtures {
		question := fixture.Question.Question()
		for i, tc := range fixture.Cases {
			report.Total++

			answer, err := evaluation.ParseAnswerNode(tc.Answer)
			if err != nil {
				report.Failures = append(report.Failures, fmt.Sprintf("%s[%d]: %v", fixture.Name, i, err))
				continue
			}

			result := engine.Evaluate(ctx, question, answer)
			if result.IsCorrect != tc.Correct {
				report.Failures = append(report.Failures, fmt.Sprintf("%s[%d]: answer %q graded %t via %s, want %t", fixture.Name, i, answer.Text(), result.IsCorrect, result.Strategy, tc.Correct))
				continue
			}
			report.Passed++
		}
	}
	return report
}

func writeJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
