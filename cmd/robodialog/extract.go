package main

import (
	"fmt"
	"log/slog"

	"github.com/abdulachik/robodialog/internal/classifier"
	"github.com/abdulachik/robodialog/internal/config"
	"github.com/abdulachik/robodialog/internal/corpus"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/abdulachik/robodialog/internal/pipeline"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract AI/robot dialogue from the corpus into the database",
	Long: `Run the extraction pipeline: stream the corpus, classify speakers,
and upsert every AI/robot line into the dialogues table.

Re-running against the same corpus is idempotent; unchanged lines are
reported as skipped. Exits non-zero when no dialogue was extracted.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForExtraction(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("starting dialogue extraction",
		"corpus", cfg.CorpusDir,
		"database", cfg.DatabasePath,
	)

	report, err := pipeline.Run(ctx, corpus.NewDirSource(cfg.CorpusDir), store, pipeline.Config{
		Classifier: classifier.New(classifier.Config{
			Names:    cfg.RobotNames,
			Keywords: cfg.RobotKeywords,
		}),
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("extraction run: %w", err)
	}

	fmt.Println("=== Extraction Report ===")
	fmt.Printf("Run:        %s\n", report.RunID)
	fmt.Printf("Seen:       %d\n", report.TotalSeen)
	fmt.Printf("Extracted:  %d\n", report.Extracted)
	fmt.Printf("Inserted:   %d\n", report.Inserted)
	fmt.Printf("Updated:    %d\n", report.Updated)
	fmt.Printf("Skipped:    %d\n", report.Skipped)
	fmt.Printf("Rejected:   %d\n", report.Rejected)
	fmt.Printf("Warnings:   %d\n", report.Warnings)

	if report.Extracted == 0 {
		return fmt.Errorf("no dialogue extracted (is the corpus downloaded?)")
	}
	return nil
}
