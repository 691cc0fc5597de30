package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarim07/notification-hub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxTemplatePage bounds the active-template listing so the scan can't grow
// without limit.
const maxTemplatePage = 100

type TemplateRepository struct {
	collection *mongo.Collection
}

func NewTemplateRepository(db *mongo.Database) *TemplateRepository {
	return &TemplateRepository{
		collection: db.Collection("notification_templates"),
	}
}

func (r *TemplateRepository) Create(ctx context.Context, template *models.NotificationTemplate) (*models.NotificationTemplate, error) {
	template.CreatedAt = time.Now()
	template.Active = true

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to insert template: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	template.ID = insertedID

	return template, nil
}

// ListActive returns active templates, newest first, capped at one page.
func (r *TemplateRepository) ListActive(ctx context.Context) ([]models.NotificationTemplate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(maxTemplatePage)

	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %v", err)
	}
	defer cursor.Close(ctx)

	templates := []models.NotificationTemplate{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %v", err)
	}
	return templates, nil
}

// Delete hard-deletes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete template: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
