package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/classifier"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/evalset"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/usecases"
)

var evalFile string

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run golden-set evaluations against the current index snapshot",
}

var evalRegressionCmd = &cobra.Command{
	Use:   "regression",
	Short: "Check that answers still mention the expected keywords",
	RunE:  runEvalRegression,
}

var evalGroundednessCmd = &cobra.Command{
	Use:   "groundedness",
	Short: "Judge whether answers are supported by the retrieved passages",
	RunE:  runEvalGroundedness,
}

func init() {
	evalCmd.PersistentFlags().StringVar(&evalFile, "file", "", "YAML dataset to use instead of the built-in one")
	evalCmd.AddCommand(evalRegressionCmd)
	evalCmd.AddCommand(evalGroundednessCmd)
}

// errEvalFailed makes the process exit non-zero after the report is printed.
var errEvalFailed = errors.New("evaluation failed")

func newEvalRunner(cmd *cobra.Command) (*usecases.EvalRunner, error) {
	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := a.pipeline.Restore(cmd.Context()); err != nil {
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("%w: run `aegis ingest` first", usecases.ErrIndexUnavailable)
		}
		return nil, err
	}
	return usecases.NewEvalRunner(a.retriever, a.generator, classifier.NewLLMGroundednessJudge(a.llm)), nil
}

func runEvalRegression(cmd *cobra.Command, _ []string) error {
	cases, err := evalset.Regression(evalFile)
	if err != nil {
		return err
	}
	runner, err := newEvalRunner(cmd)
	if err != nil {
		return err
	}
	failures, err := runner.Regression(cmd.Context(), cases)
	if err != nil {
		return err
	}
	printRegression(cmd.OutOrStdout(), len(cases), failures)
	if len(failures) > 0 {
		return errEvalFailed
	}
	return nil
}

func runEvalGroundedness(cmd *cobra.Command, _ []string) error {
	cases, err := evalset.Groundedness(evalFile)
	if err != nil {
		return err
	}
	runner, err := newEvalRunner(cmd)
	if err != nil {
		return err
	}
	results, err := runner.Groundedness(cmd.Context(), cases)
	if err != nil {
		return err
	}
	if printGroundedness(cmd.OutOrStdout(), results) > 0 {
		return errEvalFailed
	}
	return nil
}

func printRegression(w io.Writer, total int, failures []entities.RegressionFailure) {
	if len(failures) == 0 {
		fmt.Fprintf(w, "regression: %d/%d passed\n", total, total)
		return
	}
	for _, f := range failures {
		fmt.Fprintf(w, "FAIL %q\n  missing: %s\n  answer:  %s\n", f.Query, strings.Join(f.Missing, ", "), oneLine(f.Answer))
	}
	fmt.Fprintf(w, "regression: %d/%d passed\n", total-len(failures), total)
}

func printGroundedness(w io.Writer, results []entities.GroundingResult) int {
	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%s %q grounded=%t\n", status, r.Query, r.Grounded)
	}
	fmt.Fprintf(w, "groundedness: %d/%d passed\n", len(results)-failed, len(results))
	return failed
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
