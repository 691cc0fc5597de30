package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarim07/notification-hub/internal/models"
	"github.com/dkarim07/notification-hub/internal/relay"
	"github.com/dkarim07/notification-hub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("template not found")
)

// NotificationStore is the persistence contract the orchestrator writes and
// reads through. Implemented by repository.NotificationRepository.
type NotificationStore interface {
	Create(ctx context.Context, notif *models.Notification) (*models.Notification, error)
	CreateMany(ctx context.Context, notifs []models.Notification) (int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, skip, limit int64) ([]models.Notification, error)
	Count(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) (int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore resolves recipients for existence checks and display identity.
// Implemented by repository.UserRepository.
type UserStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// NotificationService coordinates the durable write path and the best-effort
// Telegram relay. The store write must succeed for an operation to succeed;
// relay delivery is fired off afterwards and never awaited.
type NotificationService struct {
	store NotificationStore
	users UserStore
	relay relay.Relay
}

func NewNotificationService(store NotificationStore, users UserStore, r relay.Relay) *NotificationService {
	return &NotificationService{
		store: store,
		users: users,
		relay: r,
	}
}

// NotifyUser persists a notification for an existing user and, if requested,
// mirrors a summary to the Telegram ops channel without blocking the caller.
func (s *NotificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, req models.NotificationCreateRequest, sendTelegram bool) (*models.Notification, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to validate recipient: %w", err)
	}

	notif := &models.Notification{
		UserID:   userID,
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Metadata: req.Metadata,
	}
	if notif.Metadata == nil {
		notif.Metadata = map[string]interface{}{}
	}

	created, err := s.store.Create(ctx, notif)
	if err != nil {
		return nil, err
	}

	if sendTelegram {
		summary := fmt.Sprintf("📬 <b>%s</b>\n\n%s\n\n👤 To: %s", req.Title, req.Message, user.Email)
		s.relayToOps(summary)
	}

	return created, nil
}

// Broadcast fans a message out to every existing user in userIDs. Unknown or
// malformed ids are skipped without aborting the batch; duplicates produce
// duplicate notifications. Returns the number of records actually created.
func (s *NotificationService) Broadcast(ctx context.Context, req models.BroadcastRequest, sendTelegram bool) (int64, error) {
	var batch []models.Notification
	for _, raw := range req.UserIDs {
		userID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			continue
		}
		if _, err := s.users.GetUserByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return 0, fmt.Errorf("failed to validate recipient: %w", err)
		}
		batch = append(batch, models.Notification{
			UserID:   userID,
			Type:     req.Type,
			Title:    req.Title,
			Message:  req.Message,
			Metadata: map[string]interface{}{},
		})
	}

	var created int64
	if len(batch) > 0 {
		var err error
		created, err = s.store.CreateMany(ctx, batch)
		if err != nil {
			return 0, err
		}
	}

	if sendTelegram {
		summary := fmt.Sprintf("📢 <b>Broadcast: %s</b>\n\n%s\n\n👥 Sent to: %d users", req.Title, req.Message, created)
		s.relayToOps(summary)
	}

	return created, nil
}

// SystemNotify records a notification originated by the platform itself
// (deposits, KYC decisions, security events). Unlike NotifyUser it does not
// reject unknown recipients; the user lookup only feeds the relay summary and
// its identity is omitted when the lookup fails.
func (s *NotificationService) SystemNotify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, sendTelegram bool) (*models.Notification, error) {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Metadata: map[string]interface{}{},
	}

	created, err := s.store.Create(ctx, notif)
	if err != nil {
		return nil, err
	}

	if sendTelegram {
		email := "N/A"
		if user, err := s.users.GetUserByID(ctx, userID); err == nil {
			email = user.Email
		}
		summary := fmt.Sprintf("🔔 <b>%s</b>\n\n%s\n\n👤 User: %s", title, message, email)
		s.relayToOps(summary)
	}

	return created, nil
}

// relayToOps hands the summary to the relay on a detached goroutine. The
// durable write is already confirmed by the time this runs; a failed or lost
// relay attempt is logged and forgotten.
func (s *NotificationService) relayToOps(text string) {
	go func() {
		if ok := s.relay.SendToOpsChannel(text); !ok {
			logrus.Warn("Telegram relay delivery failed")
		}
	}()
}

// GetFeed returns one page of a user's notifications plus full-set counters.
// The unread counter always covers the whole unread set, regardless of the
// unread_only filter.
func (s *NotificationService) GetFeed(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, skip, limit int64) (*models.NotificationFeed, error) {
	notifications, err := s.store.ListByUser(ctx, userID, unreadOnly, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.Count(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return &models.NotificationFeed{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

// GetUserFeed is the admin view of another user's feed, joined with the
// target's minimal identity.
func (s *NotificationService) GetUserFeed(ctx context.Context, userID primitive.ObjectID, skip, limit int64) (*models.AdminNotificationFeed, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	notifications, err := s.store.ListByUser(ctx, userID, false, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	return &models.AdminNotificationFeed{
		Notifications: notifications,
		Total:         total,
		User: models.PublicUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil
}

// MarkRead marks a single owned notification as read. Idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	if err := s.store.MarkRead(ctx, notifID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// Delete removes a notification owned by userID.
func (s *NotificationService) Delete(ctx context.Context, notifID, userID primitive.ObjectID) error {
	if err := s.store.Delete(ctx, notifID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// CleanupOldNotifications purges read notifications older than the retention
// window. Called by the cron scheduler.
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.store.DeleteReadOlderThan(ctx, cutoff)
	return err
}
