package cron

import (
	"context"

	"github.com/dkarim07/notification-hub/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartRetentionCron schedules the daily sweep of read notifications older
// than retentionDays. A non-positive retention disables the sweep.
func StartRetentionCron(notificationService *services.NotificationService, retentionDays int) {
	if retentionDays <= 0 {
		logrus.Info("Notification retention sweep disabled")
		return
	}

	c := cron.New()

	c.AddFunc("@daily", func() {
		err := notificationService.CleanupOldNotifications(context.Background(), retentionDays)
		if err != nil {
			logrus.WithError(err).Error("CleanupOldNotifications failed")
		}
	})

	c.Start()
}
