// Package extractor turns the raw corpus stream into dialogue records:
// resolve each utterance's speaker, classify, normalize the text, and emit
// one record per qualifying line. Problems with individual utterances are
// warnings, never fatal; only the classifier's verdict decides what is
// kept.
package extractor

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/abdulachik/robodialog/internal/classifier"
	"github.com/abdulachik/robodialog/internal/corpus"
	"github.com/abdulachik/robodialog/internal/db"
)

// Stats counts what one pass of Extract saw. Valid once the returned
// sequence has been drained.
type Stats struct {
	Seen      int
	Extracted int
	Warnings  int
}

// Extractor filters a corpus stream down to AI/robot dialogue.
type Extractor struct {
	classifier *classifier.Classifier
	stats      Stats
}

// New creates an Extractor using the given classifier.
func New(c *classifier.Classifier) *Extractor {
	return &Extractor{classifier: c}
}

// Extract lazily maps the utterance stream to dialogue records, preserving
// the relative order of qualifying utterances. Dangling speaker references
// and lines that normalize to nothing are skipped with a warning;
// non-robot speakers are skipped silently. A source error ends the
// sequence after being yielded.
func (e *Extractor) Extract(speakers map[string]corpus.Speaker, utterances iter.Seq2[corpus.Utterance, error]) iter.Seq2[db.Dialogue, error] {
	e.stats = Stats{}
	return func(yield func(db.Dialogue, error) bool) {
		for u, err := range utterances {
			if err != nil {
				yield(db.Dialogue{}, err)
				return
			}
			e.stats.Seen++

			speaker, ok := speakers[u.SpeakerID]
			if !ok {
				e.stats.Warnings++
				slog.Warn("utterance references unknown speaker",
					"utterance", u.ID, "speaker", u.SpeakerID)
				continue
			}

			result := e.classifier.Classify(speaker)
			if !result.Robot {
				continue
			}

			text := normalize(u.Text)
			if text == "" {
				e.stats.Warnings++
				slog.Warn("utterance empty after normalization",
					"utterance", u.ID, "speaker", speaker.Name)
				continue
			}

			e.stats.Extracted++
			d := db.Dialogue{
				MovieID:        u.MovieID,
				SpeakerID:      speaker.ID,
				SpeakerName:    speaker.Name,
				ConversationID: u.ConversationID,
				Position:       u.Position,
				Text:           text,
				Reason:         result.Reason,
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Stats returns the counters from the most recent Extract pass.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// normalize trims surrounding whitespace and collapses internal runs to a
// single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
