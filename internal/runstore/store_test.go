package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/executor"
)

// sampleRun builds a run fixture with one completed and one failed node.
func sampleRun(id, workflowName string, startedAt time.Time) *Run {
	return &Run{
		ID:        id,
		Workflow:  workflowName,
		StartedAt: startedAt,
		Results: []executor.Result{
			{
				NodeID:   "fetch",
				Status:   executor.StatusCompleted,
				Outputs:  map[string]any{"body": "hello"},
				Duration: 12 * time.Millisecond,
			},
			{
				NodeID:   "parse",
				Status:   executor.StatusError,
				Error:    "boom",
				Duration: 3 * time.Millisecond,
			},
		},
	}
}

// storeContract runs the behavior every Store implementation must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	_, err := store.Run(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	older := sampleRun("run-1", "scrape", base)
	newer := sampleRun("run-2", "scrape", base.Add(time.Minute))
	other := sampleRun("run-3", "unrelated", base)
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))
	require.NoError(t, store.SaveRun(ctx, other))

	got, err := store.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "scrape", got.Workflow)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "fetch", got.Results[0].NodeID)
	assert.Equal(t, executor.StatusCompleted, got.Results[0].Status)
	assert.Equal(t, "hello", got.Results[0].Outputs["body"])
	assert.Equal(t, "boom", got.Results[1].Error)

	runs, err := store.ListRuns(ctx, "scrape")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID, "newest first")
	assert.Equal(t, "run-1", runs[1].ID)

	runs, err = store.ListRuns(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	defer store.Close()
	storeContract(t, store)
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	original := sampleRun("run-1", "scrape", time.Now())
	require.NoError(t, store.SaveRun(ctx, original))

	// Mutating the caller's copy must not leak into the store.
	original.Workflow = "mutated"
	got, err := store.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "scrape", got.Workflow)

	// Mutating a read result must not leak either.
	got.Workflow = "mutated again"
	again, err := store.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "scrape", again.Workflow)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "scrape", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "scrape", got.Workflow)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	store := NewRedisStore(RedisOptions{Addr: srv.Addr()})
	defer store.Close()

	storeContract(t, store)
}

func TestRedisStore_SkipsExpiredRunBodies(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	store := NewRedisStore(RedisOptions{Addr: srv.Addr(), TTL: time.Minute})
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "scrape", time.Now())))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-2", "scrape", time.Now().Add(time.Second))))

	// Expire one run body; the sorted-set index entry goes stale.
	srv.FastForward(2 * time.Minute)
	srv.ZAdd("flowgrid:workflow:scrape:runs", 1, "run-1")
	srv.ZAdd("flowgrid:workflow:scrape:runs", 2, "run-2")

	runs, err := store.ListRuns(ctx, "scrape")
	require.NoError(t, err)
	assert.Empty(t, runs, "expired bodies are skipped, not errors")
}
