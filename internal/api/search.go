package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/search"
)

const maxQueryLength = 200

type suggestionsResponse struct {
	State       search.State     `json:"state"`
	Suggestions []models.Product `json:"suggestions"`
	Popular     []models.Product `json:"popular,omitempty"`
	History     []string         `json:"history,omitempty"`
}

// Suggestions answers GET /search/suggestions?q=&limit=&record=.
func (s *Server) Suggestions(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("q")
	if len(query) > maxQueryLength {
		s.writeError(c, errors.NewInputValidationError("q must be at most 200 characters"))
		return
	}

	engine := s.deps.Engine
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 20 {
			s.writeError(c, errors.NewInputValidationError("limit must be an integer between 1 and 20"))
			return
		}
		engine = search.NewEngine(limit)
	}

	products, err := s.deps.Catalog.Products(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result := engine.Suggest(query, products)
	metrics.SuggestRequests.WithLabelValues("http", string(result.State)).Inc()
	metrics.SuggestResultSize.Observe(float64(len(result.Products)))

	resp := suggestionsResponse{State: result.State, Suggestions: result.Products}
	if result.State == search.StateIdle {
		resp.Popular = search.Popular(products, s.deps.PopularCount)
		if resp.History, err = s.deps.History.List(ctx); err != nil {
			s.logger.Warn("Search history unavailable", map[string]interface{}{"error": err})
		}
	} else if record, _ := strconv.ParseBool(c.Query("record")); record {
		if _, err := s.deps.History.Record(ctx, query); err != nil {
			s.logger.Warn("Failed to record search query", map[string]interface{}{
				"query": query,
				"error": err,
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListHistory(c *gin.Context) {
	history, err := s.deps.History.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) ClearHistory(c *gin.Context) {
	if err := s.deps.History.Clear(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
