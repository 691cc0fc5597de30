package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkarim07/notification-hub/internal/models"
	"github.com/dkarim07/notification-hub/internal/repository"
	"github.com/dkarim07/notification-hub/internal/services"
	jwtutil "github.com/dkarim07/notification-hub/pkg/jwt"
	"github.com/dkarim07/notification-hub/pkg/logger"
	"github.com/dkarim07/notification-hub/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	logger.InitLogger()
}

type memNotificationStore struct {
	notifs []models.Notification
}

func (m *memNotificationStore) Create(_ context.Context, notif *models.Notification) (*models.Notification, error) {
	notif.ID = primitive.NewObjectID()
	notif.CreatedAt = time.Now()
	m.notifs = append(m.notifs, *notif)
	return notif, nil
}

func (m *memNotificationStore) CreateMany(_ context.Context, notifs []models.Notification) (int64, error) {
	for i := range notifs {
		notifs[i].ID = primitive.NewObjectID()
		notifs[i].CreatedAt = time.Now()
		m.notifs = append(m.notifs, notifs[i])
	}
	return int64(len(notifs)), nil
}

func (m *memNotificationStore) ListByUser(_ context.Context, userID primitive.ObjectID, unreadOnly bool, skip, limit int64) ([]models.Notification, error) {
	matched := []models.Notification{}
	for i := len(m.notifs) - 1; i >= 0; i-- {
		n := m.notifs[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		matched = append(matched, n)
	}
	if skip >= int64(len(matched)) {
		return []models.Notification{}, nil
	}
	matched = matched[skip:]
	if limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memNotificationStore) Count(_ context.Context, userID primitive.ObjectID, unreadOnly bool) (int64, error) {
	var count int64
	for _, n := range m.notifs {
		if n.UserID == userID && !(unreadOnly && n.Read) {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationStore) MarkRead(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range m.notifs {
		if m.notifs[i].ID == id && m.notifs[i].UserID == userID {
			if !m.notifs[i].Read {
				now := time.Now()
				m.notifs[i].Read = true
				m.notifs[i].ReadAt = &now
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotificationStore) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	now := time.Now()
	for i := range m.notifs {
		if m.notifs[i].UserID == userID && !m.notifs[i].Read {
			m.notifs[i].Read = true
			m.notifs[i].ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (m *memNotificationStore) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range m.notifs {
		if m.notifs[i].ID == id && m.notifs[i].UserID == userID {
			m.notifs = append(m.notifs[:i], m.notifs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotificationStore) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func (m *memUserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type memTemplateStore struct {
	templates []models.NotificationTemplate
}

func (m *memTemplateStore) Create(_ context.Context, template *models.NotificationTemplate) (*models.NotificationTemplate, error) {
	template.ID = primitive.NewObjectID()
	template.Active = true
	template.CreatedAt = time.Now()
	m.templates = append(m.templates, *template)
	return template, nil
}

func (m *memTemplateStore) ListActive(_ context.Context) ([]models.NotificationTemplate, error) {
	active := []models.NotificationTemplate{}
	for i := len(m.templates) - 1; i >= 0; i-- {
		if m.templates[i].Active {
			active = append(active, m.templates[i])
		}
	}
	return active, nil
}

func (m *memTemplateStore) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range m.templates {
		if m.templates[i].ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type noopRelay struct{}

func (noopRelay) SendText(chatID, text string) bool { return true }
func (noopRelay) SendToOpsChannel(text string) bool { return true }

type testEnv struct {
	router    *mux.Router
	store     *memNotificationStore
	users     *memUserStore
	templates *memTemplateStore
}

// injectClaims wires the routes of interest with a stub auth layer that puts
// the given claims into every request context.
func injectClaims(claims *jwtutil.Claims) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.ContextWithUser(r.Context(), claims)))
		})
	}
}

func newTestEnv(claims *jwtutil.Claims, users ...*models.User) *testEnv {
	env := &testEnv{
		store:     &memNotificationStore{},
		users:     &memUserStore{users: map[primitive.ObjectID]*models.User{}},
		templates: &memTemplateStore{},
	}
	for _, u := range users {
		env.users.users[u.ID] = u
	}

	notificationService := services.NewNotificationService(env.store, env.users, noopRelay{})
	templateService := services.NewTemplateService(env.templates)

	notificationHandler := NewNotificationHandler(notificationService)
	adminHandler := NewAdminHandler(notificationService, templateService)

	router := mux.NewRouter()
	router.Use(injectClaims(claims))
	router.HandleFunc("/api/users/notifications/me", notificationHandler.GetMyNotificationsHandler).Methods("GET")
	router.HandleFunc("/api/users/notifications/mark-all-read", notificationHandler.MarkAllReadHandler).Methods("POST")
	router.HandleFunc("/api/users/notifications/{id}/read", notificationHandler.MarkAsReadHandler).Methods("PATCH")
	router.HandleFunc("/api/users/notifications/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")
	router.HandleFunc("/api/admin/users/{user_id}/notify", adminHandler.NotifyUserHandler).Methods("POST")
	router.HandleFunc("/api/admin/notifications/broadcast", adminHandler.BroadcastHandler).Methods("POST")
	router.HandleFunc("/api/admin/users/{user_id}/notifications", adminHandler.GetUserNotificationsHandler).Methods("GET")
	router.HandleFunc("/api/admin/notification-templates", adminHandler.GetTemplatesHandler).Methods("GET")
	router.HandleFunc("/api/admin/notification-templates", adminHandler.CreateTemplateHandler).Methods("POST")
	router.HandleFunc("/api/admin/notification-templates/{id}", adminHandler.DeleteTemplateHandler).Methods("DELETE")
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func claimsFor(user *models.User) *jwtutil.Claims {
	return &jwtutil.Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
	}
}

func newUser(role string) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "tester",
		Email:    "tester@example.com",
		Role:     role,
	}
}

func TestGetMyNotifications(t *testing.T) {
	user := newUser("user")
	env := newTestEnv(claimsFor(user), user)

	env.store.notifs = append(env.store.notifs, models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		Type:      "deposit",
		Title:     "Deposit received",
		Message:   "Credited",
		CreatedAt: time.Now(),
	})

	rec := env.do(t, http.MethodGet, "/api/users/notifications/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feed models.NotificationFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, int64(1), feed.Total)
	assert.Equal(t, int64(1), feed.UnreadCount)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, "Deposit received", feed.Notifications[0].Title)
}

func TestMarkAsRead_NotFound(t *testing.T) {
	user := newUser("user")
	env := newTestEnv(claimsFor(user), user)

	path := fmt.Sprintf("/api/users/notifications/%s/read", primitive.NewObjectID().Hex())
	rec := env.do(t, http.MethodPatch, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAllRead_ReturnsCount(t *testing.T) {
	user := newUser("user")
	env := newTestEnv(claimsFor(user), user)
	for i := 0; i < 2; i++ {
		env.store.notifs = append(env.store.notifs, models.Notification{
			ID: primitive.NewObjectID(), UserID: user.ID, CreatedAt: time.Now(),
		})
	}

	rec := env.do(t, http.MethodPost, "/api/users/notifications/mark-all-read", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Count)
}

func TestDeleteNotification_OwnershipEnforced(t *testing.T) {
	user := newUser("user")
	env := newTestEnv(claimsFor(user), user)

	foreign := models.Notification{
		ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), CreatedAt: time.Now(),
	}
	env.store.notifs = append(env.store.notifs, foreign)

	rec := env.do(t, http.MethodDelete, "/api/users/notifications/"+foreign.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, env.store.notifs, 1)
}

func TestAdminNotifyUser(t *testing.T) {
	admin := newUser("admin")
	target := newUser("user")
	env := newTestEnv(claimsFor(admin), admin, target)

	body := models.NotificationCreateRequest{
		Type:    "kyc",
		Title:   "KYC approved",
		Message: "Documents accepted",
	}
	rec := env.do(t, http.MethodPost, "/api/admin/users/"+target.ID.Hex()+"/notify", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success      bool                `json:"success"`
		Notification models.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, target.ID, resp.Notification.UserID)
}

func TestAdminNotifyUser_UnknownTarget(t *testing.T) {
	admin := newUser("admin")
	env := newTestEnv(claimsFor(admin), admin)

	body := models.NotificationCreateRequest{Title: "t", Message: "m"}
	rec := env.do(t, http.MethodPost, "/api/admin/users/"+primitive.NewObjectID().Hex()+"/notify", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminNotifyUser_InvalidBody(t *testing.T) {
	admin := newUser("admin")
	target := newUser("user")
	env := newTestEnv(claimsFor(admin), admin, target)

	rec := env.do(t, http.MethodPost, "/api/admin/users/"+target.ID.Hex()+"/notify", models.NotificationCreateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.store.notifs)
}

func TestAdminBroadcast(t *testing.T) {
	admin := newUser("admin")
	u1 := newUser("user")
	u2 := newUser("user")
	env := newTestEnv(claimsFor(admin), admin, u1, u2)

	body := models.BroadcastRequest{
		UserIDs: []string{u1.ID.Hex(), u2.ID.Hex(), primitive.NewObjectID().Hex()},
		Type:    "security",
		Title:   "Maintenance",
		Message: "Tonight",
	}
	rec := env.do(t, http.MethodPost, "/api/admin/notifications/broadcast", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SentCount int64 `json:"sent_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.SentCount)
}

func TestAdminGetUserNotifications(t *testing.T) {
	admin := newUser("admin")
	target := newUser("user")
	env := newTestEnv(claimsFor(admin), admin, target)

	env.store.notifs = append(env.store.notifs, models.Notification{
		ID: primitive.NewObjectID(), UserID: target.ID, Title: "t", CreatedAt: time.Now(),
	})

	rec := env.do(t, http.MethodGet, "/api/admin/users/"+target.ID.Hex()+"/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feed models.AdminNotificationFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, int64(1), feed.Total)
	assert.Equal(t, target.Email, feed.User.Email)

	rec = env.do(t, http.MethodGet, "/api/admin/users/"+primitive.NewObjectID().Hex()+"/notifications", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateLifecycle(t *testing.T) {
	admin := newUser("admin")
	env := newTestEnv(claimsFor(admin), admin)

	rec := env.do(t, http.MethodPost, "/api/admin/notification-templates", models.TemplateCreateRequest{
		Name:    "welcome",
		Type:    "info",
		Title:   "Welcome",
		Message: "Glad to have you",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var createResp struct {
		Template models.NotificationTemplate `json:"template"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))

	rec = env.do(t, http.MethodGet, "/api/admin/notification-templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Templates []models.NotificationTemplate `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Templates, 1)

	rec = env.do(t, http.MethodDelete, "/api/admin/notification-templates/"+createResp.Template.ID.Hex(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/notification-templates/"+createResp.Template.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
