package main

import (
	"fmt"

	"github.com/abdulachik/robodialog/internal/config"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/spf13/cobra"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Build the per-character flattened dialogue table",
	Long: `Rebuild the character_dialogues table: one row per character with all
their lines joined together. Lines within one movie are separated by " | ",
movies by " @@ ". Existing synopses are preserved across rebuilds.`,
	RunE: runFlatten,
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
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

	count, err := store.FlattenDialogues(ctx)
	if err != nil {
		return fmt.Errorf("flatten dialogues: %w", err)
	}

	fmt.Printf("Flattened dialogue for %d characters.\n", count)
	return nil
}
