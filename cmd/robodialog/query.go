package main

import (
	"fmt"

	"github.com/abdulachik/robodialog/internal/config"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/spf13/cobra"
)

var (
	queryMovie   string
	querySpeaker string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored dialogue",
	Long: `Query the dialogue store.

Examples:
  robodialog query --movie m3          # All dialogue from one movie, in order
  robodialog query --speaker hal       # All dialogue whose speaker name contains "hal"`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryMovie, "movie", "", "Movie ID to query")
	queryCmd.Flags().StringVar(&querySpeaker, "speaker", "", "Speaker name substring to query (case-insensitive)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if queryMovie == "" && querySpeaker == "" {
		return fmt.Errorf("must specify --movie or --speaker")
	}

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

	var dialogues []db.Dialogue
	if queryMovie != "" {
		dialogues, err = store.DialoguesByMovie(ctx, queryMovie)
		if err != nil {
			return fmt.Errorf("query by movie: %w", err)
		}
	} else {
		dialogues, err = store.DialoguesBySpeaker(ctx, querySpeaker)
		if err != nil {
			return fmt.Errorf("query by speaker: %w", err)
		}
	}

	if len(dialogues) == 0 {
		fmt.Println("No dialogue found.")
		return nil
	}

	for _, d := range dialogues {
		fmt.Printf("[%s %s#%d] %s: %s\n",
			d.MovieID, d.ConversationID, d.Position, d.SpeakerName, d.Text)
	}
	fmt.Printf("\n%d lines.\n", len(dialogues))
	return nil
}
