// internal/models/notification.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is the closed set of notification kinds.
type Category string

const (
	CategoryOrder     Category = "order"
	CategoryPromotion Category = "promotion"
	CategoryShipping  Category = "shipping"
	CategorySystem    Category = "system"
	CategorySecurity  Category = "security"
)

// Categories lists every category in a fixed order; uniform draws index into it.
var Categories = []Category{
	CategoryOrder,
	CategoryPromotion,
	CategoryShipping,
	CategorySystem,
	CategorySecurity,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown notification category %q", s)
	}
	return c, nil
}

// DateLayout is the persisted date form: ISO-8601 UTC with millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Notification is one entry in the notification center. ID is the creation time in
// Unix milliseconds.
type Notification struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    Category  `json:"type"`
	Read    bool      `json:"read"`
	Date    time.Time `json:"date"`
}

type notificationJSON struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Type    Category `json:"type"`
	Read    bool     `json:"read"`
	Date    string   `json:"date"`
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationJSON{
		ID:      n.ID,
		Title:   n.Title,
		Message: n.Message,
		Type:    n.Type,
		Read:    n.Read,
		Date:    n.Date.UTC().Format(DateLayout),
	})
}

// UnmarshalJSON rejects unknown categories and unparseable dates so a corrupt record
// fails the whole load.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var raw notificationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("notification %d: unknown type %q", raw.ID, raw.Type)
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("notification %d: %w", raw.ID, err)
	}

	*n = Notification{
		ID:      raw.ID,
		Title:   raw.Title,
		Message: raw.Message,
		Type:    raw.Type,
		Read:    raw.Read,
		Date:    date,
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate reads any ISO-8601 form the store has written, truncated to milliseconds.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// UnreadCount counts entries whose read flag is false.
func UnreadCount(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}
