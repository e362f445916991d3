package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/config"
	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDConversion(t *testing.T) {
	id := uuid.New().String()

	pg := toPgUUID(id)
	assert.True(t, pg.Valid)
	assert.Equal(t, id, pgUUIDToString(pg))

	assert.False(t, toPgUUID("not-a-uuid").Valid)
	assert.False(t, toPgUUID("").Valid)
	assert.Empty(t, pgUUIDToString(pgtype.UUID{}))
}

func TestTimestamptzConversion(t *testing.T) {
	local := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))

	ts := toPgTimestamptz(local)
	require.True(t, ts.Valid)
	assert.Equal(t, time.UTC, ts.Time.Location())
	assert.True(t, local.Equal(ts.Time))

	assert.False(t, toPgTimestamptz(time.Time{}).Valid)

	assert.Nil(t, pgTimePtr(pgtype.Timestamptz{}))
	got := pgTimePtr(ts)
	require.NotNil(t, got)
	assert.True(t, local.Equal(*got))
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}

// openTestStore connects to FIELDPROMPTS_TEST_DATABASE_URL. The test is
// skipped when it is unset. Tables are dropped before and after.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("FIELDPROMPTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FIELDPROMPTS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	st, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)

	drop := func() {
		_, err := st.pool.Exec(ctx, `DROP TABLE IF EXISTS field_prompts, ingest_runs`)
		require.NoError(t, err)
	}
	drop()
	t.Cleanup(func() {
		drop()
		st.Close()
	})

	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.EnsureSchema(ctx), "schema setup is idempotent")
	return st
}

func TestStore_Integration(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sess, err := st.OpenSession(ctx)
	require.NoError(t, err)

	r := core.NormalizedRecord{Key: core.Key{Area: "Finance", SubArea: "Tax", Field: "Rate"}, Prompt: "Enter the tax rate"}

	exists, err := sess.Exists(ctx, r.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	inserted, err := sess.InsertIgnore(ctx, r, now)
	require.NoError(t, err)
	assert.True(t, inserted)

	r.Prompt = "changed"
	inserted, err = sess.InsertIgnore(ctx, r, now)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, sess.Close(ctx))

	p, err := st.PromptByKey(ctx, r.Key)
	require.NoError(t, err)
	assert.Equal(t, "Enter the tax rate", p.Prompt)

	stats, err := st.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRecords)
	assert.Equal(t, int64(1), stats.RecentlyUpdated)
	require.NotNil(t, stats.LastUpdated)
	assert.True(t, now.Equal(*stats.LastUpdated))

	require.NoError(t, st.UpdatePrompt(ctx, p.ID, "edited", now.Add(time.Hour)))
	assert.ErrorIs(t, st.UpdatePrompt(ctx, p.ID+100, "x", now), core.ErrPromptNotFound)

	_, err = st.PromptByID(ctx, p.ID+100)
	assert.ErrorIs(t, err, core.ErrPromptNotFound)

	runID := uuid.New().String()
	require.NoError(t, st.RecordRun(ctx, core.RunRecord{
		ID: runID, Source: "export.csv", Total: 1, Inserted: 1,
		StartedAt: now, Duration: 250 * time.Millisecond,
	}))
	runs, err := st.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 250*time.Millisecond, runs[0].Duration)
}
