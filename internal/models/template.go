package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationTemplate is a reusable message stored verbatim (no
// substitution). Templates are immutable once created except for the active
// flag; deletion is a hard delete.
type NotificationTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// TemplateCreateRequest is the admin payload for creating a template.
type TemplateCreateRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
