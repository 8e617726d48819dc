package catalog

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/models"
)

// productsQuery is portable across postgres (lib/pq) and sqlite (modernc).
const productsQuery = `SELECT id, title, category, brand, price, rating FROM products ORDER BY id LIMIT %d`

// SQL reads products from a products table.
type SQL struct {
	db     *sql.DB
	source string
	limit  int
}

// NewSQL wraps db; source names the backend in errors and logs.
func NewSQL(db *sql.DB, source string, limit int) *SQL {
	if limit <= 0 {
		limit = 500
	}
	return &SQL{db: db, source: source, limit: limit}
}

func (s *SQL) Products(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(productsQuery, s.limit))
	if err != nil {
		return nil, apperrors.NewCatalogQueryFailedError(s.source, err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Brand, &p.Price, &p.Rating); err != nil {
			return nil, apperrors.NewCatalogQueryFailedError(s.source, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogQueryFailedError(s.source, err)
	}
	return products, nil
}
