package syncstate

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	configlibsql "netentreprise-backend/lib/configutil/libsql"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/testutil"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testBackend(t *testing.T, backend Backend) {
	ctx := context.Background()
	store := backend.ForAccount("12345678900011")

	state, err := store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, state.LastSyncedPeriod)

	updatedAt := time.Date(2018, time.October, 15, 8, 0, 0, 0, time.UTC)
	err = store.Set(ctx, State{LastSyncedPeriod: Cursor(1809), UpdatedAt: updatedAt}, SetOptions{Merge: true})
	require.NoError(t, err)

	// a merge without a cursor keeps the stored one
	later := updatedAt.Add(time.Hour)
	err = store.Set(ctx, State{UpdatedAt: later}, SetOptions{Merge: true})
	require.NoError(t, err)

	state, err = store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncedPeriod)
	require.Equal(t, period.ID(1809), *state.LastSyncedPeriod)
	require.True(t, later.Equal(state.UpdatedAt))

	err = store.Set(ctx, State{LastSyncedPeriod: Cursor(1810)}, SetOptions{Merge: true})
	require.NoError(t, err)
	state, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, period.ID(1810), *state.LastSyncedPeriod)
	require.True(t, later.Equal(state.UpdatedAt))

	// accounts do not share state
	other, err := backend.ForAccount("98765432100022").Get(ctx)
	require.NoError(t, err)
	require.Nil(t, other.LastSyncedPeriod)

	accounts, err := backend.Accounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"12345678900011"}, accounts)

	// a plain set replaces everything
	err = store.Set(ctx, State{}, SetOptions{})
	require.NoError(t, err)
	state, err = store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, state.LastSyncedPeriod)
	require.True(t, state.UpdatedAt.IsZero())
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, NewMemoryBackend())
}

func TestMemoryBackendDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBackend().ForAccount("a")

	cursor := Cursor(1809)
	require.NoError(t, store.Set(ctx, State{LastSyncedPeriod: cursor}, SetOptions{}))
	*cursor = 1810

	state, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, period.ID(1809), *state.LastSyncedPeriod)
}

func TestSQLiteBackend(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "lib/syncstate",
		DbSchema: Schema,
	})
	testBackend(t, NewSQLBackend(res.DB))
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := fmt.Sprintf("%s/state.db", t.TempDir())

	backend, err := Open(ctx, configlibsql.Struct{File: path})
	require.NoError(t, err)
	require.NoError(t, backend.ForAccount("a").Set(ctx, State{LastSyncedPeriod: Cursor(1821)}, SetOptions{}))
	require.NoError(t, backend.Close())

	// reopening keeps the table and its rows
	backend, err = Open(ctx, configlibsql.Struct{File: path})
	require.NoError(t, err)
	defer backend.Close()
	state, err := backend.ForAccount("a").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, period.ID(1821), *state.LastSyncedPeriod)
}

func TestLibsqlBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping libsql server container in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "ghcr.io/tursodatabase/libsql-server:latest",
			ExposedPorts: []string{"8080/tcp"},
			WaitingFor:   wait.ForListeningPort("8080/tcp"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, server.Terminate(context.Background()))
	})

	endpoint, err := server.PortEndpoint(ctx, "8080/tcp", "http")
	require.NoError(t, err)

	backend, err := Open(ctx, configlibsql.Struct{Url: endpoint})
	require.NoError(t, err)
	defer backend.Close()
	testBackend(t, backend)
}
