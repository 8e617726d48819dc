package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Elasticsearch loads the catalog with a match_all search over the product index.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticsearch(client *elasticsearch.Client, index string, size int) *Elasticsearch {
	if size <= 0 {
		size = 500
	}
	return &Elasticsearch{client: client, index: index, size: size}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elasticsearch) Products(ctx context.Context) ([]models.Product, error) {
	body := `{"query":{"match_all":{}},"sort":[{"rating":{"order":"desc","unmapped_type":"float"}}]}`
	size := e.size
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewCatalogQueryFailedError("elasticsearch", fmt.Errorf("search failed: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewCatalogQueryFailedError("elasticsearch", err)
	}

	products := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		products = append(products, p)
	}
	return products, nil
}
