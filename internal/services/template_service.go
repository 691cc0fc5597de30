package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkarim07/notification-hub/internal/models"
	"github.com/dkarim07/notification-hub/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateStore is implemented by repository.TemplateRepository.
type TemplateStore interface {
	Create(ctx context.Context, template *models.NotificationTemplate) (*models.NotificationTemplate, error)
	ListActive(ctx context.Context) ([]models.NotificationTemplate, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TemplateService struct {
	repo TemplateStore
}

func NewTemplateService(repo TemplateStore) *TemplateService {
	return &TemplateService{repo: repo}
}

// CreateTemplate stores a new reusable notification template owned by the
// creating admin.
func (s *TemplateService) CreateTemplate(ctx context.Context, req models.TemplateCreateRequest, createdBy primitive.ObjectID) (*models.NotificationTemplate, error) {
	if req.Name == "" || req.Title == "" || req.Message == "" {
		return nil, fmt.Errorf("template must have a name, title and message")
	}

	template := &models.NotificationTemplate{
		Name:      req.Name,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		CreatedBy: createdBy,
	}
	return s.repo.Create(ctx, template)
}

// GetActiveTemplates returns active templates, newest first.
func (s *TemplateService) GetActiveTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	return s.repo.ListActive(ctx)
}

// DeleteTemplate hard-deletes a template by its hex id.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTemplateNotFound
	}
	if err := s.repo.Delete(ctx, objID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}
