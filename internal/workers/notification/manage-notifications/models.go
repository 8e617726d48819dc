package managenotifications

import "storefront-workers/internal/models"

const (
	ActionAdd         = "add"
	ActionMarkRead    = "mark-read"
	ActionMarkAllRead = "mark-all-read"
	ActionDelete      = "delete"
	ActionClear       = "clear"
	ActionList        = "list"
)

// Input.ID is required for mark-read and delete; Title, Message and Type for add.
type Input struct {
	Action  string `json:"action"`
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

type Output struct {
	Action        string                `json:"action"`
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
	NewIDs        []int64               `json:"newIds"`
	Created       *models.Notification  `json:"created,omitempty"`
}
