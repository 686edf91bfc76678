package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the corpus and persist a new index snapshot",
	Long: `Reads every configured corpus directory, fingerprints the documents and
rebuilds the index snapshot when the fingerprint changed since the last
persisted snapshot. --force rebuilds unconditionally.

Prints the ingestion report as JSON.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "rebuild even when the corpus fingerprint is unchanged")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	// The persisted fingerprint is what an unforced run compares against.
	if _, err := a.pipeline.Restore(ctx); err != nil && !errors.Is(err, ports.ErrSnapshotNotFound) {
		logger.Warn("persisted index snapshot unusable", "error", err)
	}

	report, err := a.pipeline.Run(ctx, ingestForce)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
