package notification

import (
	"time"

	"storefront-workers/internal/models"
)

// SeedNotifications is the fixed set shown when nothing usable is persisted. Dates are
// relative to now so the seed always looks recent.
func SeedNotifications(now time.Time) []models.Notification {
	now = now.UTC().Truncate(time.Millisecond)
	return []models.Notification{
		{
			ID:      1,
			Title:   "Order Confirmed",
			Message: "Your order #12345 has been confirmed and is being prepared.",
			Type:    models.CategoryOrder,
			Date:    now.Add(-5 * time.Minute),
		},
		{
			ID:      2,
			Title:   "Flash Sale!",
			Message: "Get 30% off all electronics. Limited time offer.",
			Type:    models.CategoryPromotion,
			Date:    now.Add(-time.Hour),
		},
		{
			ID:      3,
			Title:   "Package Delivered",
			Message: "Your package has been delivered. Enjoy your purchase!",
			Type:    models.CategoryShipping,
			Read:    true,
			Date:    now.Add(-24 * time.Hour),
		},
	}
}

// templates holds the title and message used for each simulated category.
var templates = map[models.Category]Draft{
	models.CategoryOrder: {
		Title:   "Order Update",
		Message: "Your recent order has been processed and will ship soon.",
	},
	models.CategoryPromotion: {
		Title:   "Special Offer",
		Message: "A new deal just dropped on items from your wishlist.",
	},
	models.CategoryShipping: {
		Title:   "Shipping Update",
		Message: "Your package is out for delivery today.",
	},
	models.CategorySystem: {
		Title:   "System Maintenance",
		Message: "Scheduled maintenance tonight from 2:00 to 3:00 AM.",
	},
	models.CategorySecurity: {
		Title:   "Security Alert",
		Message: "A new sign-in to your account was detected.",
	},
}

// DraftFor builds the simulated notification for a category.
func DraftFor(c models.Category) Draft {
	d := templates[c]
	d.Type = c
	return d
}
