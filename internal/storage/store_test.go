package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"storefront-workers/internal/common/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func setupSQLite(t *testing.T) *database.SQLiteClient {
	t.Helper()
	client, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Every backend must behave identically for the notification and history stores.
func TestStore_Contract(t *testing.T) {
	_, rdb := setupRedis(t)
	sqlite := setupSQLite(t)

	backends := map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(rdb, "storefront"),
		"sqlite": NewSQL(sqlite.DB, clockwork.NewFakeClock()),
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, KeyNotifications)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, KeyNotifications, []byte(`[{"id":1}]`)))
			got, err := store.Get(ctx, KeyNotifications)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":1}]`, string(got))

			require.NoError(t, store.Set(ctx, KeyNotifications, []byte(`[]`)))
			got, err = store.Get(ctx, KeyNotifications)
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, store.Delete(ctx, KeyNotifications))
			_, err = store.Get(ctx, KeyNotifications)
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting an absent key is not an error.
			assert.NoError(t, store.Delete(ctx, KeySearchHistory))
		})
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte(`["red"]`)
	require.NoError(t, m.Set(ctx, KeySearchHistory, value))
	value[2] = 'X'

	got, err := m.Get(ctx, KeySearchHistory)
	require.NoError(t, err)
	assert.Equal(t, `["red"]`, string(got))
}

func TestRedis_PrefixesKeys(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewRedis(rdb, "shop")

	require.NoError(t, store.Set(context.Background(), KeySearchHistory, []byte(`["hat"]`)))

	raw, err := mr.Get("shop:searchHistory")
	require.NoError(t, err)
	assert.Equal(t, `["hat"]`, raw)
	assert.False(t, mr.Exists("searchHistory"))
}

func TestRedis_Errors(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, "")

	mock.ExpectGet(KeyNotifications).SetErr(errors.New("connection reset"))
	mock.ExpectSet(KeyNotifications, []byte(`[]`), 0).SetErr(errors.New("READONLY"))
	mock.ExpectDel(KeySearchHistory).SetErr(errors.New("timeout"))

	_, err := store.Get(ctx, KeyNotifications)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, store.Set(ctx, KeyNotifications, []byte(`[]`)), "READONLY")
	assert.ErrorContains(t, store.Delete(ctx, KeySearchHistory), "timeout")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_UsesClockForUpdatedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	store := NewSQL(db, clock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)")).
		WithArgs(KeySearchHistory, []byte(`["shoes"]`), "2024-01-02T03:04:05Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectValueSQL)).
		WithArgs(KeySearchHistory).
		WillReturnError(errors.New("disk I/O error"))

	require.NoError(t, store.Set(context.Background(), KeySearchHistory, []byte(`["shoes"]`)))
	_, err = store.Get(context.Background(), KeySearchHistory)
	assert.ErrorContains(t, err, "disk I/O error")

	assert.NoError(t, mock.ExpectationsWereMet())
}
