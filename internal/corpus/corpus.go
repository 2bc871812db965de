// Package corpus adapts the ConvoKit movie-dialogs corpus into a uniform
// in-memory record stream: speaker metadata, utterance text and conversation
// linkage. Anything that can produce this record shape is an acceptable
// source; the rest of the pipeline never touches the files directly.
package corpus

import (
	"context"
	"iter"
)

// Meta is the free-form metadata attached to corpus records. Values are
// whatever the corpus JSON carried (string, number or null); consumers read
// named keys through the typed accessors and treat anything missing or of
// the wrong type as absent.
type Meta map[string]any

// String returns the string value for key, or false when the key is missing,
// null, or not a string.
func (m Meta) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the numeric value for key, or false when the key is missing,
// null, or not a number. JSON numbers decode as float64.
func (m Meta) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Speaker is one character in the corpus. Immutable for the duration of a
// run.
type Speaker struct {
	ID   string
	Name string
	Meta Meta
}

// Utterance is one spoken line attributed to a speaker within a
// conversation. Position is the zero-based index of the line within its
// conversation, in corpus file order.
type Utterance struct {
	ID             string
	SpeakerID      string
	ConversationID string
	MovieID        string
	Position       int
	Text           string
}

// Movie is denormalized reference data for one film in the corpus.
type Movie struct {
	ID    string
	Title string
	Year  int
}

// Source is the boundary between the corpus and the extraction pipeline.
// Utterances returns a lazy, finite, single-pass sequence; calling it again
// yields a fresh pass over the corpus.
type Source interface {
	Speakers(ctx context.Context) (map[string]Speaker, error)
	Movies(ctx context.Context) ([]Movie, error)
	Utterances(ctx context.Context) iter.Seq2[Utterance, error]
}
