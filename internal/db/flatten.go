package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Separators used in the flattened character_dialogues rows: lines within
// one movie are joined with lineSep, per-movie chunks (and movie titles)
// with movieSep.
const (
	lineSep  = " | "
	movieSep = " @@ "
)

// CharacterDialogue is one flattened row: everything a character says,
// across all their movies.
type CharacterDialogue struct {
	CharacterName string
	MovieTitles   string
	Dialogue      string
	Synopsis      string
}

// FlattenDialogues rebuilds the character_dialogues table from the
// per-utterance rows: one row per character, lines joined per movie and
// movies chained in order. Existing synopses are carried over. Returns the
// number of characters written.
func (s *Store) FlattenDialogues(ctx context.Context) (int, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT d.speaker_name, COALESCE(m.title, d.movie_id), d.text
		FROM dialogues d
		LEFT JOIN movies m ON m.movie_id = d.movie_id
		ORDER BY d.speaker_name, d.movie_id, d.conversation_id, d.position`)
	if err != nil {
		return 0, fmt.Errorf("query dialogues: %w", err)
	}

	type movieChunk struct {
		title string
		lines []string
	}
	type character struct {
		name   string
		movies []*movieChunk
	}

	var characters []*character
	byName := make(map[string]*character)

	func() {
		defer rows.Close()
		for rows.Next() {
			var name, title, text string
			if err2 := rows.Scan(&name, &title, &text); err2 != nil {
				err = fmt.Errorf("scan dialogue: %w", err2)
				return
			}
			ch, ok := byName[name]
			if !ok {
				ch = &character{name: name}
				byName[name] = ch
				characters = append(characters, ch)
			}
			var chunk *movieChunk
			if n := len(ch.movies); n > 0 && ch.movies[n-1].title == title {
				chunk = ch.movies[n-1]
			} else {
				chunk = &movieChunk{title: title}
				ch.movies = append(ch.movies, chunk)
			}
			chunk.lines = append(chunk.lines, text)
		}
		if err2 := rows.Err(); err2 != nil {
			err = fmt.Errorf("iterate dialogues: %w", err2)
		}
	}()
	if err != nil {
		return 0, err
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Keep synopses across rebuilds.
	synopses := make(map[string]string)
	synRows, err := tx.QueryContext(ctx,
		"SELECT character_name, COALESCE(synopsis, '') FROM character_dialogues")
	if err != nil {
		return 0, fmt.Errorf("query synopses: %w", err)
	}
	for synRows.Next() {
		var name, syn string
		if err := synRows.Scan(&name, &syn); err != nil {
			synRows.Close()
			return 0, fmt.Errorf("scan synopsis: %w", err)
		}
		if syn != "" {
			synopses[name] = syn
		}
	}
	if err := synRows.Err(); err != nil {
		synRows.Close()
		return 0, fmt.Errorf("iterate synopses: %w", err)
	}
	synRows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM character_dialogues"); err != nil {
		return 0, fmt.Errorf("clear character_dialogues: %w", err)
	}

	for _, ch := range characters {
		titles := make([]string, len(ch.movies))
		chunks := make([]string, len(ch.movies))
		for i, mc := range ch.movies {
			titles[i] = mc.title
			chunks[i] = strings.Join(mc.lines, lineSep)
		}

		var synopsis sql.NullString
		if syn, ok := synopses[ch.name]; ok {
			synopsis = sql.NullString{String: syn, Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO character_dialogues (character_name, movie_titles, dialogue, synopsis)
			VALUES (?, ?, ?, ?)`,
			ch.name, strings.Join(titles, movieSep), strings.Join(chunks, movieSep), synopsis)
		if err != nil {
			return 0, fmt.Errorf("insert character %s: %w", ch.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit flatten: %w", err)
	}
	return len(characters), nil
}

// UpdateSynopsis sets the synopsis for a flattened character row. Returns
// false when no such character exists.
func (s *Store) UpdateSynopsis(ctx context.Context, characterName, synopsis string) (bool, error) {
	res, err := s.ExecContext(ctx,
		"UPDATE character_dialogues SET synopsis = ? WHERE character_name = ?",
		synopsis, characterName)
	if err != nil {
		return false, fmt.Errorf("update synopsis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListCharacterDialogues returns the flattened rows ordered by character
// name.
func (s *Store) ListCharacterDialogues(ctx context.Context) ([]CharacterDialogue, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT character_name, movie_titles, dialogue, COALESCE(synopsis, '')
		FROM character_dialogues
		ORDER BY character_name`)
	if err != nil {
		return nil, fmt.Errorf("query character dialogues: %w", err)
	}
	defer rows.Close()

	var out []CharacterDialogue
	for rows.Next() {
		var cd CharacterDialogue
		if err := rows.Scan(&cd.CharacterName, &cd.MovieTitles, &cd.Dialogue, &cd.Synopsis); err != nil {
			return nil, fmt.Errorf("scan character dialogue: %w", err)
		}
		out = append(out, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character dialogues: %w", err)
	}
	return out, nil
}
