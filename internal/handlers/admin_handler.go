package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dkarim07/notification-hub/internal/models"
	"github.com/dkarim07/notification-hub/internal/services"
	"github.com/dkarim07/notification-hub/pkg/logger"
	"github.com/dkarim07/notification-hub/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves the admin notification and template endpoints. Role
// checks happen in middleware; handlers presume an authenticated admin.
type AdminHandler struct {
	Notifications *services.NotificationService
	Templates     *services.TemplateService
}

func NewAdminHandler(notifications *services.NotificationService, templates *services.TemplateService) *AdminHandler {
	return &AdminHandler{
		Notifications: notifications,
		Templates:     templates,
	}
}

// POST /api/admin/users/{user_id}/notify?send_telegram
func (h *AdminHandler) NotifyUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := primitive.ObjectIDFromHex(vars["user_id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req models.NotificationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Message == "" {
		http.Error(w, "Title and message are required", http.StatusBadRequest)
		return
	}

	// Relay defaults to on; only an explicit false disables it.
	sendTelegram := r.URL.Query().Get("send_telegram") != "false"

	notification, err := h.Notifications.NotifyUser(r.Context(), userID, req, sendTelegram)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Log.Errorf("Failed to send notification: %v", err)
		http.Error(w, "Failed to send notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"notification": notification,
		"message":      "Notification sent successfully",
	})
}

// POST /api/admin/notifications/broadcast
func (h *AdminHandler) BroadcastHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Message == "" {
		http.Error(w, "Title and message are required", http.StatusBadRequest)
		return
	}

	sendTelegram := true
	if req.SendTelegram != nil {
		sendTelegram = *req.SendTelegram
	}

	count, err := h.Notifications.Broadcast(r.Context(), req, sendTelegram)
	if err != nil {
		logger.Log.Errorf("Failed to broadcast notification: %v", err)
		http.Error(w, "Failed to broadcast notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"sent_count": count,
		"message":    fmt.Sprintf("Notification sent to %d users", count),
	})
}

// GET /api/admin/users/{user_id}/notifications?skip&limit
func (h *AdminHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := primitive.ObjectIDFromHex(vars["user_id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	skip := parseInt64Query(r, "skip", 0)
	limit := parseInt64Query(r, "limit", defaultPageLimit)

	feed, err := h.Notifications.GetUserFeed(r.Context(), userID, skip, limit)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Log.Errorf("Failed to fetch user notifications: %v", err)
		http.Error(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// GET /api/admin/notification-templates
func (h *AdminHandler) GetTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.GetActiveTemplates(r.Context())
	if err != nil {
		logger.Log.Errorf("Failed to fetch templates: %v", err)
		http.Error(w, "Failed to get templates", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

// POST /api/admin/notification-templates
func (h *AdminHandler) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	adminID, _ := primitive.ObjectIDFromHex(claims.UserID)

	var req models.TemplateCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	template, err := h.Templates.CreateTemplate(r.Context(), req, adminID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"template": template,
		"message":  "Template created successfully",
	})
}

// DELETE /api/admin/notification-templates/{id}
func (h *AdminHandler) DeleteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.Templates.DeleteTemplate(r.Context(), vars["id"]); err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			http.Error(w, "Template not found", http.StatusNotFound)
			return
		}
		logger.Log.Errorf("Failed to delete template: %v", err)
		http.Error(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Template deleted successfully"})
}
