package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdulachik/robodialog/internal/corpus"
)

// Dialogue is one stored line of AI/robot dialogue. (MovieID,
// ConversationID, Position) is the natural key.
type Dialogue struct {
	MovieID        string
	SpeakerID      string
	SpeakerName    string
	ConversationID string
	Position       int
	Text           string
	Reason         string
}

// Validate reports the first missing required field, or nil.
func (d Dialogue) Validate() error {
	switch {
	case d.MovieID == "":
		return errors.New("missing movie_id")
	case d.SpeakerID == "":
		return errors.New("missing speaker_id")
	case d.SpeakerName == "":
		return errors.New("missing speaker_name")
	case d.ConversationID == "":
		return errors.New("missing conversation_id")
	case d.Position < 0:
		return errors.New("negative position")
	case d.Text == "":
		return errors.New("missing text")
	case d.Reason == "":
		return errors.New("missing reason")
	}
	return nil
}

// UpsertSummary reports the outcome of one UpsertDialogues call.
type UpsertSummary struct {
	Inserted int
	Updated  int
	Skipped  int
	Rejected []string
}

// UpsertDialogues writes a batch of dialogue records in a single
// transaction. Malformed records are filtered out before the write and
// reported in Rejected; the surviving records commit or roll back together.
// Records whose natural key already exists are updated only when a field
// differs, otherwise counted as skipped.
func (s *Store) UpsertDialogues(ctx context.Context, records []Dialogue) (UpsertSummary, error) {
	var summary UpsertSummary

	valid := make([]Dialogue, 0, len(records))
	for _, d := range records {
		if err := d.Validate(); err != nil {
			summary.Rejected = append(summary.Rejected,
				fmt.Sprintf("%s/%s/%d: %v", d.MovieID, d.ConversationID, d.Position, err))
			continue
		}
		valid = append(valid, d)
	}
	if len(valid) == 0 {
		return summary, nil
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range valid {
		var existing Dialogue
		err := tx.QueryRowContext(ctx, `
			SELECT speaker_id, speaker_name, text, reason
			FROM dialogues
			WHERE movie_id = ? AND conversation_id = ? AND position = ?`,
			d.MovieID, d.ConversationID, d.Position,
		).Scan(&existing.SpeakerID, &existing.SpeakerName, &existing.Text, &existing.Reason)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err := tx.ExecContext(ctx, `
				INSERT INTO dialogues (movie_id, speaker_id, speaker_name, conversation_id, position, text, reason)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				d.MovieID, d.SpeakerID, d.SpeakerName, d.ConversationID, d.Position, d.Text, d.Reason)
			if err != nil {
				return summary, fmt.Errorf("insert dialogue: %w", err)
			}
			summary.Inserted++

		case err != nil:
			return summary, fmt.Errorf("query dialogue: %w", err)

		case existing.SpeakerID == d.SpeakerID &&
			existing.SpeakerName == d.SpeakerName &&
			existing.Text == d.Text &&
			existing.Reason == d.Reason:
			summary.Skipped++

		default:
			_, err := tx.ExecContext(ctx, `
				UPDATE dialogues
				SET speaker_id = ?, speaker_name = ?, text = ?, reason = ?
				WHERE movie_id = ? AND conversation_id = ? AND position = ?`,
				d.SpeakerID, d.SpeakerName, d.Text, d.Reason,
				d.MovieID, d.ConversationID, d.Position)
			if err != nil {
				return summary, fmt.Errorf("update dialogue: %w", err)
			}
			summary.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit dialogues: %w", err)
	}
	return summary, nil
}

// DialoguesByMovie returns all dialogue for a movie, ordered by
// conversation then position so conversations read in sequence.
func (s *Store) DialoguesByMovie(ctx context.Context, movieID string) ([]Dialogue, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT movie_id, speaker_id, speaker_name, conversation_id, position, text, reason
		FROM dialogues
		WHERE movie_id = ?
		ORDER BY conversation_id, position`,
		movieID)
	if err != nil {
		return nil, fmt.Errorf("query dialogues by movie: %w", err)
	}
	return scanDialogues(rows)
}

// DialoguesBySpeaker returns dialogue whose speaker name contains pattern,
// case-insensitive.
func (s *Store) DialoguesBySpeaker(ctx context.Context, pattern string) ([]Dialogue, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT movie_id, speaker_id, speaker_name, conversation_id, position, text, reason
		FROM dialogues
		WHERE instr(lower(speaker_name), lower(?)) > 0
		ORDER BY speaker_name, movie_id, conversation_id, position`,
		pattern)
	if err != nil {
		return nil, fmt.Errorf("query dialogues by speaker: %w", err)
	}
	return scanDialogues(rows)
}

func scanDialogues(rows *sql.Rows) ([]Dialogue, error) {
	defer rows.Close()

	var dialogues []Dialogue
	for rows.Next() {
		var d Dialogue
		if err := rows.Scan(&d.MovieID, &d.SpeakerID, &d.SpeakerName,
			&d.ConversationID, &d.Position, &d.Text, &d.Reason); err != nil {
			return nil, fmt.Errorf("scan dialogue: %w", err)
		}
		dialogues = append(dialogues, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dialogues: %w", err)
	}
	return dialogues, nil
}

// CountDialogues returns the total number of stored dialogue lines.
func (s *Store) CountDialogues(ctx context.Context) (int64, error) {
	var count int64
	err := s.QueryRowContext(ctx, "SELECT COUNT(*) FROM dialogues").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count dialogues: %w", err)
	}
	return count, nil
}

// GroupCount is one row of a grouped dialogue count.
type GroupCount struct {
	Key   string
	Label string
	Count int64
}

// CountByMovie returns dialogue counts per movie, most lines first. The
// label falls back to the movie ID when reference data is missing.
func (s *Store) CountByMovie(ctx context.Context) ([]GroupCount, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT d.movie_id, COALESCE(m.title, d.movie_id), COUNT(*)
		FROM dialogues d
		LEFT JOIN movies m ON m.movie_id = d.movie_id
		GROUP BY d.movie_id
		ORDER BY COUNT(*) DESC, d.movie_id`)
	if err != nil {
		return nil, fmt.Errorf("count by movie: %w", err)
	}
	return scanGroupCounts(rows)
}

// CountByCharacter returns dialogue counts per character, most lines first.
func (s *Store) CountByCharacter(ctx context.Context) ([]GroupCount, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT speaker_name, speaker_name, COUNT(*)
		FROM dialogues
		GROUP BY speaker_name
		ORDER BY COUNT(*) DESC, speaker_name`)
	if err != nil {
		return nil, fmt.Errorf("count by character: %w", err)
	}
	return scanGroupCounts(rows)
}

func scanGroupCounts(rows *sql.Rows) ([]GroupCount, error) {
	defer rows.Close()

	var counts []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Label, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// UpsertMovies writes movie reference data, replacing existing titles and
// years.
func (s *Store) UpsertMovies(ctx context.Context, movies []corpus.Movie) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range movies {
		if m.ID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movies (movie_id, title, year)
			VALUES (?, ?, ?)
			ON CONFLICT(movie_id) DO UPDATE SET title = excluded.title, year = excluded.year`,
			m.ID, m.Title, m.Year)
		if err != nil {
			return fmt.Errorf("upsert movie %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit movies: %w", err)
	}
	return nil
}
