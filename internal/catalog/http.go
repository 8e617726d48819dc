package catalog

import (
	"bytes"
	"context"
	"encoding/json"

	apperrors "storefront-workers/internal/common/errors"
	commonhttp "storefront-workers/internal/common/http"
	"storefront-workers/internal/models"
)

// HTTP fetches the catalog from a REST endpoint that answers either a bare array or
// {"products": [...]}.
type HTTP struct {
	client *commonhttp.Client
	url    string
}

func NewHTTP(client *commonhttp.Client, url string) *HTTP {
	return &HTTP{client: client, url: url}
}

func (h *HTTP) Products(ctx context.Context) ([]models.Product, error) {
	var raw json.RawMessage
	if err := h.client.GetJSON(ctx, h.url, &raw); err != nil {
		return nil, apperrors.NewCatalogUnavailableError("http", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []models.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, apperrors.NewCatalogQueryFailedError("http", err)
		}
		return products, nil
	}

	var envelope struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, apperrors.NewCatalogQueryFailedError("http", err)
	}
	if envelope.Products == nil {
		envelope.Products = []models.Product{}
	}
	return envelope.Products, nil
}
