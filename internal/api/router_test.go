package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/assistant"
	"storefront-workers/internal/catalog"
	commonhttp "storefront-workers/internal/common/http"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/contact"
	"storefront-workers/internal/models"
	"storefront-workers/internal/notification"
	"storefront-workers/internal/search"
	"storefront-workers/internal/storage"
)

// ==========================
// Test Helper Functions
// ==========================

type failingWrites struct {
	storage.Store
}

func (failingWrites) Set(context.Context, string, []byte) error {
	return stderrors.New("disk full")
}

type testEnv struct {
	router *gin.Engine
	store  *notification.Store
	kv     storage.Store
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T, kv storage.Store, contactURL string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)

	if kv == nil {
		kv = storage.NewMemory()
	}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store := notification.NewStore(kv, clock, log)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(store.Close)

	deps := Dependencies{
		Catalog:       catalog.NewStatic(catalog.DemoProducts()),
		Engine:        search.NewEngine(search.DefaultMaxSuggestions),
		History:       search.NewHistory(kv, search.DefaultHistoryLimit, log),
		PopularCount:  3,
		Notifications: store,
		Assistant:     assistant.New(assistant.DefaultMaxSuggestions),
		Debounce:      50 * time.Millisecond,
		Logger:        log,
	}
	if contactURL != "" {
		deps.Contact = contact.NewForms(contact.NewClient(commonhttp.NewClient(2*time.Second), contactURL, log))
	}
	return &testEnv{router: NewRouter(deps), store: store, kv: kv, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// ==========================
// Health
// ==========================

func TestRouter_HealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_NotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Dependencies{
		Catalog: catalog.NewStatic(nil),
		Ready:   func(context.Context) error { return stderrors.New("catalog not loaded") },
		Logger:  logger.NewTestLogger(t),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "catalog not loaded")
}

// ==========================
// Search
// ==========================

func TestRouter_Suggestions(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=headphones&record=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp suggestionsResponse
	decode(t, w, &resp)
	assert.Equal(t, search.StateResults, resp.State)
	require.NotEmpty(t, resp.Suggestions)
	assert.Nil(t, resp.Popular)

	w = env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = suggestionsResponse{}
	decode(t, w, &resp)
	assert.Equal(t, search.StateIdle, resp.State)
	assert.Empty(t, resp.Suggestions)
	assert.Len(t, resp.Popular, 3)
	assert.Equal(t, []string{"headphones"}, resp.History)

	w = env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=zzzz", "")
	resp = suggestionsResponse{}
	decode(t, w, &resp)
	assert.Equal(t, search.StateNoResults, resp.State)
}

func TestRouter_SuggestionsValidation(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=a&limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INPUT_VALIDATION_FAILED")

	w = env.do(t, http.MethodGet, "/api/v1/search/suggestions?q="+strings.Repeat("a", 201), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_History(t *testing.T) {
	env := newTestEnv(t, nil, "")

	env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=lamp&record=1", "")
	env.do(t, http.MethodGet, "/api/v1/search/suggestions?q=shoes&record=1", "")

	w := env.do(t, http.MethodGet, "/api/v1/search/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history":["shoes","lamp"]}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/v1/search/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/search/history", "")
	assert.JSONEq(t, `{"history":[]}`, w.Body.String())
}

func TestRouter_LiveSearch(t *testing.T) {
	env := newTestEnv(t, nil, "")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/search/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	for _, q := range []string{"h", "he", "headphones"} {
		require.NoError(t, wsjson.Write(ctx, conn, liveQuery{Query: q}))
	}

	var update search.Update
	for update.Query != "headphones" {
		update = search.Update{}
		require.NoError(t, wsjson.Read(ctx, conn, &update))
	}
	assert.Equal(t, "headphones", update.Query)
	assert.Equal(t, search.StateResults, update.State)
	assert.NotEmpty(t, update.Products)

	require.NoError(t, conn.Close(ws.StatusNormalClosure, ""))
}

// ==========================
// Notifications
// ==========================

func TestRouter_Notifications(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list notificationsResponse
	decode(t, w, &list)
	assert.Len(t, list.Notifications, 3)
	assert.Equal(t, 2, list.UnreadCount)

	w = env.do(t, http.MethodPost, "/api/v1/notifications", `{"type":"promotion","title":"Flash sale"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Notification models.Notification `json:"notification"`
	}
	decode(t, w, &created)
	assert.Equal(t, "Flash sale", created.Notification.Title)
	assert.Equal(t, models.CategoryPromotion, created.Notification.Type)
	assert.Equal(t, 3, models.UnreadCount(env.store.List()))

	w = env.do(t, http.MethodPost, "/api/v1/notifications/1/read", "")
	require.Equal(t, http.StatusOK, w.Code)
	list = notificationsResponse{}
	decode(t, w, &list)
	assert.Equal(t, 2, list.UnreadCount)

	w = env.do(t, http.MethodDelete, "/api/v1/notifications/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	list = notificationsResponse{}
	decode(t, w, &list)
	assert.Len(t, list.Notifications, 3)

	w = env.do(t, http.MethodPost, "/api/v1/notifications/read-all", "")
	list = notificationsResponse{}
	decode(t, w, &list)
	assert.Equal(t, 0, list.UnreadCount)

	w = env.do(t, http.MethodDelete, "/api/v1/notifications", "")
	list = notificationsResponse{}
	decode(t, w, &list)
	assert.Empty(t, list.Notifications)
	assert.NotNil(t, list.Notifications)
}

func TestRouter_NotificationsReportNewIDs(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodPost, "/api/v1/notifications", `{"type":"order"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Notification models.Notification `json:"notification"`
	}
	decode(t, w, &created)

	w = env.do(t, http.MethodGet, "/api/v1/notifications", "")
	var list notificationsResponse
	decode(t, w, &list)
	assert.Equal(t, []int64{created.Notification.ID}, list.NewIDs)

	env.clock.Advance(notification.DefaultHighlight)
	assert.Eventually(t, func() bool {
		w := env.do(t, http.MethodGet, "/api/v1/notifications", "")
		var list notificationsResponse
		decode(t, w, &list)
		return list.NewIDs != nil && len(list.NewIDs) == 0
	}, time.Second, 5*time.Millisecond)

	w = env.do(t, http.MethodGet, "/api/v1/notifications", "")
	assert.Contains(t, w.Body.String(), `"newIds":[]`)
}

func TestRouter_LiveNotifications(t *testing.T) {
	env := newTestEnv(t, nil, "")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/notifications/live", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial notificationsResponse
	require.NoError(t, wsjson.Read(ctx, conn, &initial))
	assert.Len(t, initial.Notifications, 3)
	assert.Equal(t, 2, initial.UnreadCount)

	created, err := env.store.Add(ctx, notification.DraftFor(models.CategorySecurity))
	require.NoError(t, err)

	var update notificationsResponse
	require.NoError(t, wsjson.Read(ctx, conn, &update))
	require.Len(t, update.Notifications, 4)
	assert.Equal(t, created.ID, update.Notifications[0].ID)
	assert.Equal(t, []int64{created.ID}, update.NewIDs)

	env.clock.Advance(notification.DefaultHighlight)
	update = notificationsResponse{}
	require.NoError(t, wsjson.Read(ctx, conn, &update))
	assert.Empty(t, update.NewIDs)

	require.NoError(t, conn.Close(ws.StatusNormalClosure, ""))
}

func TestTruncateQuery(t *testing.T) {
	assert.Equal(t, "short", truncateQuery("short"))

	long := strings.Repeat("a", maxQueryLength-1) + "é"
	got := truncateQuery(long)
	assert.Equal(t, strings.Repeat("a", maxQueryLength-1), got)
	assert.True(t, utf8.ValidString(got))

	exact := strings.Repeat("b", maxQueryLength+10)
	assert.Len(t, truncateQuery(exact), maxQueryLength)
}

func TestRouter_NotificationErrors(t *testing.T) {
	env := newTestEnv(t, nil, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown category", http.MethodPost, "/api/v1/notifications", `{"type":"weather"}`, http.StatusBadRequest, "INVALID_NOTIFICATION_CATEGORY"},
		{"missing type", http.MethodPost, "/api/v1/notifications", `{"title":"x"}`, http.StatusBadRequest, "INPUT_VALIDATION_FAILED"},
		{"bad id", http.MethodPost, "/api/v1/notifications/abc/read", "", http.StatusBadRequest, "INPUT_VALIDATION_FAILED"},
		{"zero id", http.MethodDelete, "/api/v1/notifications/0", "", http.StatusBadRequest, "INPUT_VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
	assert.Len(t, env.store.List(), 3)
}

func TestRouter_NotificationPersistFailureIsWarning(t *testing.T) {
	env := newTestEnv(t, failingWrites{Store: storage.NewMemory()}, "")

	w := env.do(t, http.MethodPost, "/api/v1/notifications/read-all", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list notificationsResponse
	decode(t, w, &list)
	assert.Equal(t, 0, list.UnreadCount)
	assert.NotEmpty(t, list.Warning)

	w = env.do(t, http.MethodPost, "/api/v1/notifications", `{"type":"system"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "warning")
}

// ==========================
// Contact
// ==========================

func TestRouter_Contact(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()
	env := newTestEnv(t, nil, upstream.URL)

	w := env.do(t, http.MethodPost, "/api/v1/contact",
		`{"name":"Ada","email":"ada@example.com","message":"Where is my order?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp contactResponse
	decode(t, w, &resp)
	assert.Equal(t, models.SubmissionSuccess, resp.State)
	assert.NotEmpty(t, resp.ID)

	w = env.do(t, http.MethodPost, "/api/v1/contact", `{"name":"Ada","email":"not-an-email","message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONTACT_VALIDATION_FAILED")

	w = env.do(t, http.MethodPost, "/api/v1/contact", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ContactUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()
	env := newTestEnv(t, nil, upstream.URL)

	w := env.do(t, http.MethodPost, "/api/v1/contact",
		`{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp contactResponse
	decode(t, w, &resp)
	assert.Equal(t, models.SubmissionFailure, resp.State)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "CONTACT_SUBMIT_FAILED", resp.Error["code"])
}

func TestRouter_ContactRefusesDuplicateWhileLoading(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()
	env := newTestEnv(t, nil, upstream.URL)
	body := `{"name":"Ada","email":"ada@example.com","message":"Where is my order?"}`

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- env.do(t, http.MethodPost, "/api/v1/contact", body) }()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	w := env.do(t, http.MethodPost, "/api/v1/contact", body)
	require.Equal(t, http.StatusConflict, w.Code)
	var resp contactResponse
	decode(t, w, &resp)
	assert.Equal(t, models.SubmissionLoading, resp.State)
	assert.Equal(t, "CONTACT_IN_PROGRESS", resp.Error["code"])

	other := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		other <- env.do(t, http.MethodPost, "/api/v1/contact",
			`{"name":"Grace","email":"grace@example.com","message":"Hello"}`)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	close(release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
	assert.Equal(t, http.StatusOK, (<-other).Code)

	w = env.do(t, http.MethodPost, "/api/v1/contact", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ContactDisabled(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodPost, "/api/v1/contact", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==========================
// Assistant
// ==========================

func TestRouter_AssistantMessage(t *testing.T) {
	env := newTestEnv(t, nil, "")

	w := env.do(t, http.MethodPost, "/api/v1/assistant/messages", `{"message":"How long does shipping take?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var reply assistant.Reply
	decode(t, w, &reply)
	assert.Equal(t, assistant.IntentShipping, reply.Intent)
	assert.NotEmpty(t, reply.Text)

	w = env.do(t, http.MethodPost, "/api/v1/assistant/messages", `{"message":"any headphones?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	reply = assistant.Reply{}
	decode(t, w, &reply)
	assert.Equal(t, assistant.IntentProducts, reply.Intent)
	assert.NotEmpty(t, reply.Products)

	w = env.do(t, http.MethodPost, "/api/v1/assistant/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor("PARSE_ERROR"))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("CATALOG_UNAVAILABLE"))
	assert.Equal(t, http.StatusConflict, statusFor("CONTACT_IN_PROGRESS"))
	assert.Equal(t, http.StatusBadGateway, statusFor("CONTACT_TIMEOUT"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("STORAGE_READ_FAILED"))
}
