package main

import (
	"fmt"

	"github.com/abdulachik/robodialog/internal/config"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display dialogue counts overall, per movie and per character.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	// Ensure migrations are run
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	total, err := store.CountDialogues(ctx)
	if err != nil {
		return fmt.Errorf("count dialogues: %w", err)
	}

	byMovie, err := store.CountByMovie(ctx)
	if err != nil {
		return fmt.Errorf("count by movie: %w", err)
	}

	byCharacter, err := store.CountByCharacter(ctx)
	if err != nil {
		return fmt.Errorf("count by character: %w", err)
	}

	fmt.Println("=== RoboDialog Statistics ===")
	fmt.Println()
	fmt.Printf("Database: %s\n", cfg.DatabasePath)
	fmt.Println()
	fmt.Printf("Dialogue lines: %d\n", total)
	fmt.Println()

	if len(byMovie) > 0 {
		fmt.Println("By movie:")
		for _, row := range byMovie {
			fmt.Printf("  %s: %d\n", row.Label, row.Count)
		}
		fmt.Println()
	}

	if len(byCharacter) > 0 {
		fmt.Println("By character:")
		for _, row := range byCharacter {
			fmt.Printf("  %s: %d\n", row.Label, row.Count)
		}
		fmt.Println()
	}

	return nil
}
