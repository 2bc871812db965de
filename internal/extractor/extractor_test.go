package extractor

import (
	"errors"
	"iter"
	"testing"

	"github.com/abdulachik/robodialog/internal/classifier"
	"github.com/abdulachik/robodialog/internal/corpus"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utteranceSeq(utterances []corpus.Utterance, finalErr error) iter.Seq2[corpus.Utterance, error] {
	return func(yield func(corpus.Utterance, error) bool) {
		for _, u := range utterances {
			if !yield(u, nil) {
				return
			}
		}
		if finalErr != nil {
			yield(corpus.Utterance{}, finalErr)
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[db.Dialogue, error]) []db.Dialogue {
	t.Helper()
	var out []db.Dialogue
	for d, err := range seq {
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestExtractor_Extract(t *testing.T) {
	speakers := map[string]corpus.Speaker{
		"u1": {ID: "u1", Name: "HAL", Meta: corpus.Meta{}},
		"u2": {ID: "u2", Name: "Alice", Meta: corpus.Meta{}},
		"u3": {ID: "u3", Name: "Bob", Meta: corpus.Meta{"description": "a friendly android"}},
	}

	t.Run("normalizes and tags robot dialogue", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u1", ConversationID: "c1", MovieID: "m3", Position: 0, Text: "  hello   world  "},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		require.Len(t, got, 1)
		assert.Equal(t, "hello world", got[0].Text)
		assert.Equal(t, classifier.ReasonNameAllowlist, got[0].Reason)
		assert.Equal(t, "HAL", got[0].SpeakerName)
		assert.Equal(t, "m3", got[0].MovieID)
		assert.Equal(t, "c1", got[0].ConversationID)
		assert.Equal(t, 0, got[0].Position)
	})

	t.Run("keyword-classified speaker carries its reason", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u3", ConversationID: "c1", MovieID: "m1", Text: "Hi."},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		require.Len(t, got, 1)
		assert.Equal(t, classifier.ReasonKeywordMatch, got[0].Reason)
	})

	t.Run("non-robot speakers are skipped silently", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u2", ConversationID: "c1", MovieID: "m1", Text: "Hello."},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		assert.Empty(t, got)

		stats := e.Stats()
		assert.Equal(t, 1, stats.Seen)
		assert.Equal(t, 0, stats.Extracted)
		assert.Equal(t, 0, stats.Warnings)
	})

	t.Run("dangling speaker reference warns and continues", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u999", ConversationID: "c1", MovieID: "m1", Text: "Who said that?"},
			{ID: "L2", SpeakerID: "u1", ConversationID: "c1", MovieID: "m1", Position: 1, Text: "Me."},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		require.Len(t, got, 1)
		assert.Equal(t, "Me.", got[0].Text)

		stats := e.Stats()
		assert.Equal(t, 2, stats.Seen)
		assert.Equal(t, 1, stats.Extracted)
		assert.Equal(t, 1, stats.Warnings)
	})

	t.Run("empty after normalization warns and skips", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u1", ConversationID: "c1", MovieID: "m1", Text: "   \t\n  "},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		assert.Empty(t, got)
		assert.Equal(t, 1, e.Stats().Warnings)
	})

	t.Run("preserves input order", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u1", ConversationID: "c2", MovieID: "m1", Position: 5, Text: "five"},
			{ID: "L2", SpeakerID: "u2", ConversationID: "c1", MovieID: "m1", Position: 0, Text: "human line"},
			{ID: "L3", SpeakerID: "u1", ConversationID: "c1", MovieID: "m1", Position: 1, Text: "one"},
			{ID: "L4", SpeakerID: "u3", ConversationID: "c3", MovieID: "m1", Position: 2, Text: "two"},
		}

		got := collect(t, e.Extract(speakers, utteranceSeq(utterances, nil)))
		require.Len(t, got, 3)
		assert.Equal(t, "five", got[0].Text)
		assert.Equal(t, "one", got[1].Text)
		assert.Equal(t, "two", got[2].Text)
	})

	t.Run("source error is propagated", func(t *testing.T) {
		e := New(classifier.New(classifier.Config{}))
		srcErr := errors.New("disk gone")
		utterances := []corpus.Utterance{
			{ID: "L1", SpeakerID: "u1", ConversationID: "c1", MovieID: "m1", Text: "fine"},
		}

		var got []db.Dialogue
		var gotErr error
		for d, err := range e.Extract(speakers, utteranceSeq(utterances, srcErr)) {
			if err != nil {
				gotErr = err
				break
			}
			got = append(got, d)
		}
		assert.Len(t, got, 1)
		assert.ErrorIs(t, gotErr, srcErr)
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", normalize("  hello   world  "))
	assert.Equal(t, "a b c", normalize("a\tb\nc"))
	assert.Equal(t, "", normalize("   "))
	assert.Equal(t, "unchanged", normalize("unchanged"))
}
