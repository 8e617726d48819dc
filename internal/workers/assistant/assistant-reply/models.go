package assistantreply

import (
	"storefront-workers/internal/assistant"
	"storefront-workers/internal/models"
)

type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	SessionID string           `json:"sessionId,omitempty"`
	Intent    assistant.Intent `json:"intent"`
	Reply     string           `json:"reply"`
	Products  []models.Product `json:"products"`
}
