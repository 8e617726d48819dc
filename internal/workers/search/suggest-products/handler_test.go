package suggestproducts

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/catalog"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
	"storefront-workers/internal/search"
	"storefront-workers/internal/storage"
)

// ==========================
// Test Helper Functions
// ==========================

type failingCatalog struct{}

func (failingCatalog) Products(context.Context) ([]models.Product, error) {
	return nil, errors.NewCatalogUnavailableError("http", stderrors.New("connection refused"))
}

func testCatalog() []models.Product {
	return []models.Product{
		{ID: "1", Title: "Red Shoes", Category: "Footwear", Brand: "Stride", Price: 59.99, Rating: 4.5},
		{ID: "2", Title: "Red Hat", Category: "Accessories", Brand: "Crown", Price: 19.99, Rating: 4.1},
		{ID: "3", Title: "Blue Jeans", Category: "Apparel", Brand: "Denimco", Price: 49.99, Rating: 4.7},
		{ID: "4", Title: "Desk Lamp", Category: "Home", Brand: "Lumo", Price: 29.99, Rating: 3.9},
	}
}

func createTestHandler(t *testing.T, source search.ProductSource, store storage.Store) *Handler {
	t.Helper()
	if store == nil {
		store = storage.NewMemory()
	}
	log := logger.NewTestLogger(t)
	return NewHandler(&Config{
		Timeout:        5 * time.Second,
		MaxSuggestions: 8,
		PopularCount:   2,
	}, source, search.NewHistory(store, 5, log), log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name       string
		input      *Input
		wantState  search.State
		wantTitles []string
	}{
		{"prefix matches two products", &Input{Query: "Red"}, search.StateResults, []string{"Red Shoes", "Red Hat"}},
		{"category match", &Input{Query: "home"}, search.StateResults, []string{"Desk Lamp"}},
		{"no match", &Input{Query: "xyz"}, search.StateNoResults, nil},
		{"limit from input", &Input{Query: "red", Limit: 1}, search.StateResults, []string{"Red Shoes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, catalog.NewStatic(testCatalog()), nil)

			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, output.State)

			titles := make([]string, 0, len(output.Suggestions))
			for _, p := range output.Suggestions {
				titles = append(titles, p.Title)
			}
			if tt.wantTitles == nil {
				assert.Empty(t, titles)
			} else {
				assert.Equal(t, tt.wantTitles, titles)
			}
			assert.Nil(t, output.Popular)
		})
	}
}

func TestHandler_Execute_IdleReturnsPopularAndHistory(t *testing.T) {
	ctx := context.Background()
	handler := createTestHandler(t, catalog.NewStatic(testCatalog()), nil)

	_, err := handler.Execute(ctx, &Input{Query: "hat", RecordHistory: true})
	require.NoError(t, err)

	output, err := handler.Execute(ctx, &Input{Query: "   "})
	require.NoError(t, err)
	assert.Equal(t, search.StateIdle, output.State)
	assert.Empty(t, output.Suggestions)
	require.Len(t, output.Popular, 2)
	assert.Equal(t, "Blue Jeans", output.Popular[0].Title)
	assert.Equal(t, []string{"hat"}, output.History)
}

func TestHandler_Execute_HistoryInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	handler := createTestHandler(t, catalog.NewStatic(testCatalog()), storage.NewRedis(client, "test"))

	_, err := handler.Execute(ctx, &Input{Query: "jeans", RecordHistory: true})
	require.NoError(t, err)

	raw, err := mr.Get("test:" + storage.KeySearchHistory)
	require.NoError(t, err)
	assert.JSONEq(t, `["jeans"]`, raw)
}

func TestHandler_Execute_NoRecordWithoutFlag(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	handler := createTestHandler(t, catalog.NewStatic(testCatalog()), store)

	_, err := handler.Execute(ctx, &Input{Query: "red"})
	require.NoError(t, err)

	_, err = store.Get(ctx, storage.KeySearchHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_CatalogUnavailable(t *testing.T) {
	handler := createTestHandler(t, failingCatalog{}, nil)

	_, err := handler.Execute(context.Background(), &Input{Query: "red"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogUnavailable))
}

func TestHandler_Execute_InputValidation(t *testing.T) {
	handler := createTestHandler(t, catalog.NewStatic(testCatalog()), nil)

	_, err := handler.Execute(context.Background(), &Input{Query: strings.Repeat("a", 201)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed))

	_, err = handler.Execute(context.Background(), &Input{Query: "red", Limit: 99})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxSuggestions = 0
	assert.Error(t, cfg.Validate())
}
