package managenotifications

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
	"storefront-workers/internal/notification"
	"storefront-workers/internal/storage"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, kv storage.Store) (*Handler, *notification.Store) {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemory()
	}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	log := logger.NewTestLogger(t)

	store := notification.NewStore(kv, clock, log)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(store.Close)

	return NewHandler(&Config{Timeout: 5 * time.Second}, store, log), store
}

func ids(list []models.Notification) []int64 {
	out := make([]int64, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ListSeeds(t *testing.T) {
	handler, _ := createTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), &Input{Action: ActionList})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(output.Notifications))
	assert.Equal(t, 2, output.UnreadCount)
}

func TestHandler_Execute_AddUsesTemplateAndOverrides(t *testing.T) {
	handler, store := createTestHandler(t, nil)
	ctx := context.Background()

	output, err := handler.Execute(ctx, &Input{Action: ActionAdd, Type: "Security"})
	require.NoError(t, err)
	require.NotNil(t, output.Created)
	assert.Equal(t, models.CategorySecurity, output.Created.Type)
	assert.Equal(t, notification.DraftFor(models.CategorySecurity).Title, output.Created.Title)
	assert.Equal(t, 3, output.UnreadCount)
	assert.Equal(t, output.Created.ID, output.Notifications[0].ID)
	assert.True(t, store.IsNew(output.Created.ID))

	output, err = handler.Execute(ctx, &Input{Action: ActionAdd, Type: "order", Title: "Custom", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Custom", output.Created.Title)
	assert.Equal(t, "Hello", output.Created.Message)
	assert.Greater(t, output.Notifications[0].ID, output.Notifications[1].ID)
}

func TestHandler_Execute_ReportsNewIDs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	log := logger.NewTestLogger(t)
	store := notification.NewStore(storage.NewMemory(), clock, log)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(store.Close)
	handler := NewHandler(&Config{Timeout: 5 * time.Second}, store, log)
	ctx := context.Background()

	output, err := handler.Execute(ctx, &Input{Action: ActionList})
	require.NoError(t, err)
	assert.NotNil(t, output.NewIDs)
	assert.Empty(t, output.NewIDs)

	output, err = handler.Execute(ctx, &Input{Action: ActionAdd, Type: "shipping"})
	require.NoError(t, err)
	assert.Equal(t, []int64{output.Created.ID}, output.NewIDs)

	clock.Advance(notification.DefaultHighlight)
	assert.Eventually(t, func() bool {
		output, err := handler.Execute(ctx, &Input{Action: ActionList})
		return err == nil && len(output.NewIDs) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHandler_Execute_Mutations(t *testing.T) {
	handler, _ := createTestHandler(t, nil)
	ctx := context.Background()

	output, err := handler.Execute(ctx, &Input{Action: ActionMarkRead, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, output.UnreadCount)

	output, err = handler.Execute(ctx, &Input{Action: ActionMarkRead, ID: 999})
	require.NoError(t, err)
	assert.Equal(t, 1, output.UnreadCount)

	output, err = handler.Execute(ctx, &Input{Action: ActionDelete, ID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(output.Notifications))
	assert.Equal(t, 0, output.UnreadCount)

	output, err = handler.Execute(ctx, &Input{Action: ActionDelete, ID: 2})
	require.NoError(t, err)
	assert.Len(t, output.Notifications, 2)

	_, err = handler.Execute(ctx, &Input{Action: ActionAdd, Type: "promotion"})
	require.NoError(t, err)
	output, err = handler.Execute(ctx, &Input{Action: ActionMarkAllRead})
	require.NoError(t, err)
	assert.Equal(t, 0, output.UnreadCount)
	assert.Len(t, output.Notifications, 3)

	output, err = handler.Execute(ctx, &Input{Action: ActionClear})
	require.NoError(t, err)
	assert.Empty(t, output.Notifications)
	assert.Equal(t, 0, output.UnreadCount)
}

func TestHandler_Execute_PersistsToSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	defer db.Close()

	kv := storage.NewSQL(db.DB, clockwork.NewRealClock())
	handler, _ := createTestHandler(t, kv)

	_, err = handler.Execute(ctx, &Input{Action: ActionMarkAllRead})
	require.NoError(t, err)

	reloaded := notification.NewStore(kv, clockwork.NewFakeClock(), logger.NewTestLogger(t))
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 0, reloaded.UnreadCount())
	assert.Len(t, reloaded.List(), 3)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		code  errors.ErrorCode
	}{
		{"unknown action", &Input{Action: "archive"}, errors.ErrCodeInvalidAction},
		{"missing action", &Input{}, errors.ErrCodeInputValidationFailed},
		{"unknown category", &Input{Action: ActionAdd, Type: "weather"}, errors.ErrCodeInvalidCategory},
		{"mark-read without id", &Input{Action: ActionMarkRead}, errors.ErrCodeInputValidationFailed},
		{"delete without id", &Input{Action: ActionDelete}, errors.ErrCodeInputValidationFailed},
		{"negative id", &Input{Action: ActionDelete, ID: -4}, errors.ErrCodeInputValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store := createTestHandler(t, nil)

			_, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), err.Error())
			assert.Len(t, store.List(), 3)
		})
	}
}
