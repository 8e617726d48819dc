package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/models"
)

type contactResponse struct {
	ID         string                 `json:"id,omitempty"`
	State      models.SubmissionState `json:"state"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Error      gin.H                  `json:"error,omitempty"`
}

func (s *Server) SubmitContact(c *gin.Context) {
	var sub models.ContactSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		s.writeError(c, errors.NewParseError(err))
		return
	}

	res, err := s.deps.Contact.Submit(c.Request.Context(), sub)
	resp := contactResponse{ID: res.ID, State: res.State, StatusCode: res.StatusCode}
	if err != nil {
		stdErr := errors.AsStandardError(err)
		resp.Error = errorBody(stdErr)
		c.JSON(statusFor(stdErr.Code), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
