package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a durable message addressed to exactly one user. Broadcasts
// produce one independent record per recipient.
type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Type      string                 `bson:"type" json:"type"` // e.g. "deposit", "kyc", "security"
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Read      bool                   `bson:"read" json:"read"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"` // set once, on the first mark-read
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// NotificationCreateRequest is the admin payload for a single-target notify.
type NotificationCreateRequest struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BroadcastRequest fans one message out to a set of users. SendTelegram
// defaults to true when omitted.
type BroadcastRequest struct {
	UserIDs      []string `json:"user_ids"`
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	SendTelegram *bool    `json:"send_telegram,omitempty"`
}

// NotificationFeed is a user's paged view of their own notifications.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	UnreadCount   int64          `json:"unread_count"`
}

// AdminNotificationFeed is an admin's view of another user's feed.
type AdminNotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	User          PublicUser     `json:"user"`
}
