// Package pipeline wires corpus source, extractor and store into a single
// synchronous extraction run and aggregates the resulting counts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/robodialog/internal/classifier"
	"github.com/abdulachik/robodialog/internal/corpus"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/abdulachik/robodialog/internal/extractor"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of dialogue records written per
// transaction when the config doesn't say otherwise.
const DefaultBatchSize = 500

// Config holds the pipeline's collaborator-independent settings.
type Config struct {
	Classifier *classifier.Classifier
	BatchSize  int
}

// Report summarizes one extraction run.
type Report struct {
	RunID     uuid.UUID
	TotalSeen int
	Extracted int
	Inserted  int
	Updated   int
	Skipped   int
	Rejected  int
	Warnings  int
}

// Run drives source → extractor → store in one single-threaded loop.
// Dialogue records are written in fixed-size batches, one transaction each;
// cancellation is honored between batches, so an aborted run never leaves a
// partially visible batch. Fatal errors (unreadable corpus, unwritable
// store) abort the run; batches committed before the failure stay
// committed.
func Run(ctx context.Context, source corpus.Source, store *db.Store, cfg Config) (Report, error) {
	if cfg.Classifier == nil {
		cfg.Classifier = classifier.New(classifier.Config{})
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	var report Report

	speakers, err := source.Speakers(ctx)
	if err != nil {
		return report, fmt.Errorf("load speakers: %w", err)
	}

	movies, err := source.Movies(ctx)
	if err != nil {
		return report, fmt.Errorf("load movies: %w", err)
	}
	if err := store.UpsertMovies(ctx, movies); err != nil {
		return report, fmt.Errorf("store movies: %w", err)
	}

	runID, err := store.CreateRun(ctx)
	if err != nil {
		return report, fmt.Errorf("create run: %w", err)
	}
	report.RunID = runID

	slog.Info("starting extraction run",
		"run", runID,
		"speakers", len(speakers),
		"movies", len(movies),
		"batch_size", cfg.BatchSize,
	)

	ext := extractor.New(cfg.Classifier)
	batch := make([]db.Dialogue, 0, cfg.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		summary, err := store.UpsertDialogues(ctx, batch)
		if err != nil {
			return fmt.Errorf("upsert dialogues: %w", err)
		}
		report.Inserted += summary.Inserted
		report.Updated += summary.Updated
		report.Skipped += summary.Skipped
		report.Rejected += len(summary.Rejected)
		for _, rej := range summary.Rejected {
			slog.Warn("rejected dialogue record", "record", rej)
		}
		batch = batch[:0]
		return nil
	}

	fail := func(cause error) (Report, error) {
		if err := store.FailRun(ctx, runID, cause.Error()); err != nil {
			slog.Error("failed to mark run failed", "run", runID, "error", err)
		}
		return report, cause
	}

	for d, err := range ext.Extract(speakers, source.Utterances(ctx)) {
		if err != nil {
			return fail(fmt.Errorf("read corpus: %w", err))
		}
		batch = append(batch, d)
		if len(batch) < cfg.BatchSize {
			continue
		}
		if err := flush(); err != nil {
			return fail(err)
		}
		// Cooperative cancellation checkpoint between batches.
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
	}
	if err := flush(); err != nil {
		return fail(err)
	}

	stats := ext.Stats()
	report.TotalSeen = stats.Seen
	report.Extracted = stats.Extracted
	report.Warnings = stats.Warnings

	if err := store.FinishRun(ctx, runID, db.RunResult{
		Seen:      report.TotalSeen,
		Extracted: report.Extracted,
		Inserted:  report.Inserted,
		Updated:   report.Updated,
		Skipped:   report.Skipped,
		Rejected:  report.Rejected,
		Warnings:  report.Warnings,
	}); err != nil {
		return report, err
	}

	slog.Info("extraction run complete",
		"run", runID,
		"seen", report.TotalSeen,
		"extracted", report.Extracted,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"rejected", report.Rejected,
		"warnings", report.Warnings,
	)

	return report, nil
}
