package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// File names inside a ConvoKit corpus directory.
const (
	speakersFile      = "speakers.json"
	conversationsFile = "conversations.json"
	utterancesFile    = "utterances.jsonl"
)

// Utterance lines carry parse trees in their metadata and can run long.
const maxUtteranceLine = 10 * 1024 * 1024

// DirSource reads a ConvoKit movie-corpus directory (speakers.json,
// conversations.json, utterances.jsonl). It holds no state beyond the
// directory path; every call re-reads the files.
type DirSource struct {
	dir string
}

// NewDirSource creates a source for the corpus directory at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

type speakerEntry struct {
	Meta Meta `json:"meta"`
}

type conversationEntry struct {
	Meta Meta `json:"meta"`
}

type utteranceEntry struct {
	ID             string `json:"id"`
	Speaker        string `json:"speaker"`
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	Meta           Meta   `json:"meta"`
}

// Speakers loads the speaker table keyed by speaker ID. The display name
// comes from the character_name metadata field; speakers without one keep
// an empty name and are left to the classifier to reject.
func (s *DirSource) Speakers(ctx context.Context) (map[string]Speaker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, speakersFile))
	if err != nil {
		return nil, fmt.Errorf("read speakers: %w", err)
	}

	var raw map[string]speakerEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse speakers: %w", err)
	}

	speakers := make(map[string]Speaker, len(raw))
	for id, entry := range raw {
		name, _ := entry.Meta.String("character_name")
		speakers[id] = Speaker{
			ID:   id,
			Name: name,
			Meta: entry.Meta,
		}
	}
	return speakers, nil
}

// Movies derives the movie reference table from conversation metadata.
// Each conversation repeats its movie's index, name and release year; the
// result is deduplicated and sorted by movie ID for stable output.
func (s *DirSource) Movies(ctx context.Context) ([]Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, conversationsFile))
	if err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}

	var raw map[string]conversationEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse conversations: %w", err)
	}

	seen := make(map[string]Movie)
	for _, entry := range raw {
		id, ok := entry.Meta.String("movie_idx")
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		title, _ := entry.Meta.String("movie_name")
		year := 0
		if y, ok := entry.Meta.String("release_year"); ok {
			year = parseYear(y)
		}
		seen[id] = Movie{ID: id, Title: title, Year: year}
	}

	movies := make([]Movie, 0, len(seen))
	for _, m := range seen {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies, nil
}

// Utterances streams the utterance file line by line. Position is assigned
// as the running index within each conversation in file order; the counter
// is scoped to one pass, so re-ranging yields identical positions.
func (s *DirSource) Utterances(ctx context.Context) iter.Seq2[Utterance, error] {
	return func(yield func(Utterance, error) bool) {
		file, err := os.Open(filepath.Join(s.dir, utterancesFile))
		if err != nil {
			yield(Utterance{}, fmt.Errorf("open utterances: %w", err))
			return
		}
		defer file.Close()

		positions := make(map[string]int)

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), maxUtteranceLine)
		line := 0
		for scanner.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				yield(Utterance{}, err)
				return
			}

			var entry utteranceEntry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				yield(Utterance{}, fmt.Errorf("parse utterance line %d: %w", line, err))
				return
			}

			movieID, _ := entry.Meta.String("movie_id")
			pos := positions[entry.ConversationID]
			positions[entry.ConversationID] = pos + 1

			u := Utterance{
				ID:             entry.ID,
				SpeakerID:      entry.Speaker,
				ConversationID: entry.ConversationID,
				MovieID:        movieID,
				Position:       pos,
				Text:           entry.Text,
			}
			if !yield(u, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Utterance{}, fmt.Errorf("scan utterances: %w", err))
		}
	}
}

// parseYear reads the leading digits of a release year value. The corpus
// uses suffixed forms like "1999/I" for same-year re-releases.
func parseYear(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return year
}
