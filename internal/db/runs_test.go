package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Runs(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	t.Run("create and finish", func(t *testing.T) {
		id, err := store.CreateRun(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		err = store.FinishRun(ctx, id, RunResult{
			Seen: 100, Extracted: 10, Inserted: 8, Updated: 1, Skipped: 1,
			Rejected: 0, Warnings: 2,
		})
		require.NoError(t, err)

		var status string
		var seen, extracted int
		err = store.QueryRowContext(ctx,
			"SELECT status, seen, extracted FROM runs WHERE id = ?", id.String()).
			Scan(&status, &seen, &extracted)
		require.NoError(t, err)
		assert.Equal(t, "completed", status)
		assert.Equal(t, 100, seen)
		assert.Equal(t, 10, extracted)
	})

	t.Run("fail records the error", func(t *testing.T) {
		id, err := store.CreateRun(ctx)
		require.NoError(t, err)

		err = store.FailRun(ctx, id, "corpus unreachable")
		require.NoError(t, err)

		var status, errMsg string
		err = store.QueryRowContext(ctx,
			"SELECT status, error FROM runs WHERE id = ?", id.String()).
			Scan(&status, &errMsg)
		require.NoError(t, err)
		assert.Equal(t, "failed", status)
		assert.Equal(t, "corpus unreachable", errMsg)
	})
}
