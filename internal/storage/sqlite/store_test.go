package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
	"github.com/mcoot/xrkiosk/internal/storage/storagetest"
	"github.com/mcoot/xrkiosk/internal/testutil"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "kiosk.db"), testutil.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorageContract(t *testing.T) {
	contract := &storagetest.ContractSuite{}
	contract.NewStorage = func() storage.Storage {
		store, err := Open(filepath.Join(contract.T().TempDir(), "kiosk.db"), testutil.NopLogger())
		require.NoError(contract.T(), err)
		return store
	}
	suite.Run(t, contract)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", nil)
	assert.Error(t, err)
}

func TestReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.db")
	ctx := context.Background()

	store, err := Open(path, testutil.NopLogger())
	require.NoError(t, err)
	require.NoError(t, store.SaveTeam(ctx, storagetest.NewTeam("nk1-12345", "nk1", 2)))
	require.NoError(t, store.Close())

	reopened, err := Open(path, testutil.NopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	team, err := reopened.GetTeam(ctx, "nk1-12345")
	require.NoError(t, err)
	assert.Len(t, team.Players, 2)

	var applied int
	require.NoError(t, reopened.sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestAppendLogIsIdempotent(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	log := storagetest.NewLog("nk1-10001", "nk1", time.Minute)

	require.NoError(t, store.AppendLog(ctx, log))
	require.NoError(t, store.AppendLog(ctx, log))

	logs, err := store.RecentLogs(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestNullableTimestampsRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	team := storagetest.NewTeam("nk1-12345", "nk1", 1)
	team.CompletedAt = nil
	require.NoError(t, store.SaveTeam(ctx, team))

	got, err := store.GetTeam(ctx, "nk1-12345")
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.StaffCompletedAt)
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetTeam(ctx, "nk1-12345")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.SaveTeam(ctx, storagetest.NewTeam("nk1-12345", "nk1", 1)), context.Canceled)
	_, err = store.GetTeam(context.Background(), "nk1-12345")
	assert.ErrorIs(t, err, model.ErrTeamNotFound)
}
