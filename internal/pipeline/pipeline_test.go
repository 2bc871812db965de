package pipeline

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"

	"github.com/abdulachik/robodialog/internal/corpus"
	"github.com/abdulachik/robodialog/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory corpus.Source.
type fakeSource struct {
	speakers   map[string]corpus.Speaker
	movies     []corpus.Movie
	utterances []corpus.Utterance

	speakersErr error
	utterSeqErr error
}

func (f *fakeSource) Speakers(ctx context.Context) (map[string]corpus.Speaker, error) {
	if f.speakersErr != nil {
		return nil, f.speakersErr
	}
	return f.speakers, nil
}

func (f *fakeSource) Movies(ctx context.Context) ([]corpus.Movie, error) {
	return f.movies, nil
}

func (f *fakeSource) Utterances(ctx context.Context) iter.Seq2[corpus.Utterance, error] {
	return func(yield func(corpus.Utterance, error) bool) {
		for _, u := range f.utterances {
			if !yield(u, nil) {
				return
			}
		}
		if f.utterSeqErr != nil {
			yield(corpus.Utterance{}, f.utterSeqErr)
		}
	}
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()

	store, err := db.NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func newTestSource() *fakeSource {
	return &fakeSource{
		speakers: map[string]corpus.Speaker{
			"u1": {ID: "u1", Name: "HAL 9000", Meta: corpus.Meta{}},
			"u2": {ID: "u2", Name: "Dave", Meta: corpus.Meta{}},
		},
		movies: []corpus.Movie{
			{ID: "m3", Title: "2001: A Space Odyssey", Year: 1968},
		},
		utterances: []corpus.Utterance{
			{ID: "L1", SpeakerID: "u2", ConversationID: "c1", MovieID: "m3", Position: 0, Text: "Open the pod bay doors."},
			{ID: "L2", SpeakerID: "u1", ConversationID: "c1", MovieID: "m3", Position: 1, Text: "  I'm sorry,   Dave.  "},
			{ID: "L3", SpeakerID: "u1", ConversationID: "c2", MovieID: "m3", Position: 0, Text: "Goodbye."},
			{ID: "L4", SpeakerID: "u404", ConversationID: "c2", MovieID: "m3", Position: 1, Text: "dangling"},
		},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts robot dialogue end to end", func(t *testing.T) {
		store := newTestStore(t)

		report, err := Run(ctx, newTestSource(), store, Config{BatchSize: 2})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, report.RunID)
		assert.Equal(t, 4, report.TotalSeen)
		assert.Equal(t, 2, report.Extracted)
		assert.Equal(t, 2, report.Inserted)
		assert.Equal(t, 0, report.Updated)
		assert.Equal(t, 0, report.Skipped)
		assert.Equal(t, 1, report.Warnings)

		got, err := store.DialoguesByMovie(ctx, "m3")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "I'm sorry, Dave.", got[0].Text)
		assert.Equal(t, "HAL 9000", got[0].SpeakerName)

		// Run row was finished.
		var status string
		err = store.QueryRowContext(ctx,
			"SELECT status FROM runs WHERE id = ?", report.RunID.String()).Scan(&status)
		require.NoError(t, err)
		assert.Equal(t, "completed", status)
	})

	t.Run("second run is idempotent", func(t *testing.T) {
		store := newTestStore(t)
		source := newTestSource()

		first, err := Run(ctx, source, store, Config{})
		require.NoError(t, err)
		require.Equal(t, 2, first.Inserted)

		second, err := Run(ctx, source, store, Config{})
		require.NoError(t, err)
		assert.Equal(t, 0, second.Inserted)
		assert.Equal(t, 0, second.Updated)
		assert.Equal(t, 2, second.Skipped)

		count, err := store.CountDialogues(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		firstOrder, err := store.DialoguesByMovie(ctx, "m3")
		require.NoError(t, err)
		secondOrder, err := store.DialoguesByMovie(ctx, "m3")
		require.NoError(t, err)
		assert.Equal(t, firstOrder, secondOrder)
	})

	t.Run("unreadable speakers is fatal before any run row", func(t *testing.T) {
		store := newTestStore(t)
		source := newTestSource()
		source.speakersErr = errors.New("no such directory")

		_, err := Run(ctx, source, store, Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load speakers")
	})

	t.Run("utterance stream failure marks the run failed", func(t *testing.T) {
		store := newTestStore(t)
		source := newTestSource()
		source.utterSeqErr = errors.New("truncated corpus")

		report, err := Run(ctx, source, store, Config{BatchSize: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read corpus")

		var status, errMsg string
		err = store.QueryRowContext(ctx,
			"SELECT status, error FROM runs WHERE id = ?", report.RunID.String()).
			Scan(&status, &errMsg)
		require.NoError(t, err)
		assert.Equal(t, "failed", status)
		assert.Contains(t, errMsg, "truncated corpus")

		// Batches committed before the failure stay committed.
		count, err := store.CountDialogues(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("cancelled context aborts the run", func(t *testing.T) {
		store := newTestStore(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Run(cancelled, newTestSource(), store, Config{BatchSize: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("corpus with no robot speakers extracts nothing", func(t *testing.T) {
		store := newTestStore(t)
		source := newTestSource()
		source.speakers = map[string]corpus.Speaker{
			"u1": {ID: "u1", Name: "Alice", Meta: corpus.Meta{}},
			"u2": {ID: "u2", Name: "Dave", Meta: corpus.Meta{}},
		}
		for i := range source.utterances {
			source.utterances[i].SpeakerID = "u1"
		}

		report, err := Run(ctx, source, store, Config{})
		require.NoError(t, err)
		assert.Equal(t, 0, report.Extracted)
		assert.Equal(t, 4, report.TotalSeen)
	})
}
