package api

import (
	"context"
	"time"
	"unicode/utf8"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/search"
)

const (
	liveSendBuffer   = 8
	livePingInterval = 30 * time.Second
)

// liveQuery is one keystroke event from the search box.
type liveQuery struct {
	Query string `json:"query"`
}

// LiveSearch upgrades to a WebSocket. Each {"query": "..."} message restarts the
// debounce; the suggestions for the last query are pushed once typing pauses.
func (s *Server) LiveSearch(c *gin.Context) {
	conn, err := ws.Accept(c.Writer, c.Request, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn("WebSocket accept failed", map[string]interface{}{"error": err})
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	send := make(chan search.Update, liveSendBuffer)
	session := search.NewLiveSession(ctx, s.deps.Engine, s.deps.Catalog,
		search.NewDebouncer(s.deps.Clock, s.deps.Debounce),
		func(u search.Update) {
			metrics.SuggestRequests.WithLabelValues("websocket", string(u.State)).Inc()
			metrics.SuggestResultSize.Observe(float64(len(u.Products)))
			select {
			case send <- u:
			case <-ctx.Done():
			}
		}, s.logger)
	defer session.Close()

	go s.writeLive(ctx, cancel, conn, send)

	for {
		var msg liveQuery
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ws.CloseStatus(err) != ws.StatusNormalClosure && ctx.Err() == nil {
				s.logger.Debug("Live search connection closed", map[string]interface{}{"error": err})
			}
			return
		}
		session.Type(truncateQuery(msg.Query))
	}
}

func (s *Server) writeLive(ctx context.Context, cancel context.CancelFunc, conn *ws.Conn, send <-chan search.Update) {
	defer cancel()
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case u := <-send:
			if err := wsjson.Write(ctx, conn, u); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// LiveNotifications upgrades to a WebSocket and pushes {notifications, unreadCount, newIds}
// once on connect and again after every store change. Bursts of changes coalesce into one
// push of the latest state.
func (s *Server) LiveNotifications(c *gin.Context) {
	conn, err := ws.Accept(c.Writer, c.Request, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn("WebSocket accept failed", map[string]interface{}{"error": err})
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request.Context())

	changed := make(chan struct{}, 1)
	unsubscribe := s.deps.Notifications.Subscribe(func([]models.Notification) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	if err := wsjson.Write(ctx, conn, s.listResponse("")); err != nil {
		return
	}
	for {
		select {
		case <-changed:
			if err := wsjson.Write(ctx, conn, s.listResponse("")); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// truncateQuery cuts q to at most maxQueryLength bytes without splitting a rune.
func truncateQuery(q string) string {
	if len(q) <= maxQueryLength {
		return q
	}
	cut := maxQueryLength
	for cut > 0 && !utf8.RuneStart(q[cut]) {
		cut--
	}
	return q[:cut]
}
