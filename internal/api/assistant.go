package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-workers/internal/assistant"
	"storefront-workers/internal/common/errors"
)

type assistantRequest struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// AssistantMessage holds the request open for the simulated typing delay.
func (s *Server) AssistantMessage(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.NewInputValidationError(err.Error()))
		return
	}

	session := assistant.NewSession(s.deps.Assistant, s.deps.Catalog, s.deps.Clock, s.deps.ReplyDelay, s.logger)
	defer session.Close()

	reply, err := session.AskAndWait(c.Request.Context(), req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
