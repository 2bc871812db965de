package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/abdulachik/robodialog/internal/config"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/spf13/cobra"
)

var synopsisFile string

var synopsisCmd = &cobra.Command{
	Use:   "synopsis",
	Short: "Load character synopses into the flattened table",
	Long: `Update the synopsis column of character_dialogues from a JSON file
mapping character names to synopsis text:

  {"HAL 9000": "The ship's computer aboard Discovery One...", ...}

Run flatten first; characters without a flattened row are reported and
skipped.`,
	RunE: runSynopsis,
}

func init() {
	synopsisCmd.Flags().StringVar(&synopsisFile, "file", "", "Path to the synopsis JSON file")
	rootCmd.AddCommand(synopsisCmd)
}

func runSynopsis(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	file := synopsisFile
	if file == "" {
		file = cfg.SynopsisFile
	}
	if file == "" {
		return fmt.Errorf("must specify --file or SYNOPSIS_FILE")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read synopsis file: %w", err)
	}

	var synopses map[string]string
	if err := json.Unmarshal(data, &synopses); err != nil {
		return fmt.Errorf("parse synopsis file: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	updated := 0
	for name, synopsis := range synopses {
		ok, err := store.UpdateSynopsis(ctx, name, synopsis)
		if err != nil {
			return fmt.Errorf("update synopsis for %s: %w", name, err)
		}
		if !ok {
			slog.Warn("no flattened row for character", "character", name)
			continue
		}
		updated++
	}

	fmt.Printf("Updated synopses for %d of %d characters.\n", updated, len(synopses))
	return nil
}
