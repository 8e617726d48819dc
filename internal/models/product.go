// internal/models/product.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product is a catalog entry. The search and assistant packages read products but never
// modify them.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
}

// UnmarshalJSON accepts the id as a JSON string or a JSON number. Catalog APIs that key
// products by integer are stored with the number's decimal text as ID.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id := bytes.TrimSpace(aux.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		p.ID = ""
	case id[0] == '"':
		return json.Unmarshal(id, &p.ID)
	default:
		dec := json.NewDecoder(bytes.NewReader(id))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("product id must be a string or a number: %s", id)
		}
		p.ID = n.String()
	}
	return nil
}
