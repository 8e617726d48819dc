package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/notification"
)

// notificationsResponse carries the list plus the IDs still inside their highlight window.
type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
	NewIDs        []int64               `json:"newIds"`
	Warning       string                `json:"warning,omitempty"`
}

type createNotificationRequest struct {
	Type    string `json:"type" binding:"required"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (s *Server) listResponse(warning string) notificationsResponse {
	list, newIDs := s.deps.Notifications.Snapshot()
	return notificationsResponse{
		Notifications: list,
		UnreadCount:   models.UnreadCount(list),
		NewIDs:        newIDs,
		Warning:       warning,
	}
}

// mutated writes the list after a mutation. A failed write keeps the in-memory change,
// so it is reported as a warning rather than an error.
func (s *Server) mutated(c *gin.Context, status int, err error) {
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeStorageWriteFailed) {
			s.writeError(c, err)
			return
		}
		c.JSON(status, s.listResponse(errors.AsStandardError(err).Message))
		return
	}
	c.JSON(status, s.listResponse(""))
}

func (s *Server) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, s.listResponse(""))
}

func (s *Server) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.NewInputValidationError(err.Error()))
		return
	}
	category, err := models.ParseCategory(req.Type)
	if err != nil {
		s.writeError(c, errors.NewInvalidCategoryError(req.Type))
		return
	}

	draft := notification.DraftFor(category)
	if title := strings.TrimSpace(req.Title); title != "" {
		draft.Title = title
	}
	if message := strings.TrimSpace(req.Message); message != "" {
		draft.Message = message
	}

	created, err := s.deps.Notifications.Add(c.Request.Context(), draft)
	if err != nil && created.ID == 0 {
		s.writeError(c, err)
		return
	}
	metrics.NotificationsCreated.WithLabelValues(string(category), "api").Inc()

	resp := gin.H{"notification": created}
	if err != nil {
		resp["warning"] = errors.AsStandardError(err).Message
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	id, ok := s.notificationID(c)
	if !ok {
		return
	}
	s.mutated(c, http.StatusOK, s.deps.Notifications.MarkAsRead(c.Request.Context(), id))
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	s.mutated(c, http.StatusOK, s.deps.Notifications.MarkAllAsRead(c.Request.Context()))
}

func (s *Server) DeleteNotification(c *gin.Context) {
	id, ok := s.notificationID(c)
	if !ok {
		return
	}
	s.mutated(c, http.StatusOK, s.deps.Notifications.Delete(c.Request.Context(), id))
}

func (s *Server) ClearNotifications(c *gin.Context) {
	s.mutated(c, http.StatusOK, s.deps.Notifications.ClearAll(c.Request.Context()))
}

func (s *Server) notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, errors.NewInputValidationError("id must be a positive integer"))
		return 0, false
	}
	return id, true
}
