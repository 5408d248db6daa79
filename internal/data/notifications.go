package data

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixzit/lease-engine/db"
)

type NotificationType string

const (
	LeaseExpiryReminderNotificationType NotificationType = "lease_expiry_reminder"
	LeaseAutoRenewedNotificationType    NotificationType = "lease_auto_renewed"
)

type NotificationStatus string

const (
	PendingNotificationStatus NotificationStatus = "pending"
	SentNotificationStatus    NotificationStatus = "sent"
	FailedNotificationStatus  NotificationStatus = "failed"
)

type NotificationData map[string]interface{}

func (nd NotificationData) Value() (driver.Value, error) {
	if nd == nil {
		nd = NotificationData{}
	}
	return jsonbValue(nd, "notification data")
}

func (nd *NotificationData) Scan(src interface{}) error {
	return scanJSONB(src, nd, "notification data")
}

// Notification is a record in the outbound queue read by the notification dispatcher.
type Notification struct {
	ID             string             `json:"id" db:"id"`
	OrganizationID string             `json:"organization_id" db:"organization_id"`
	Type           NotificationType   `json:"type" db:"type"`
	RecipientID    string             `json:"recipient_id" db:"recipient_id"`
	Data           NotificationData   `json:"data" db:"data"`
	Status         NotificationStatus `json:"status" db:"status"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

type NotificationInsert struct {
	OrganizationID string
	Type           NotificationType
	RecipientID    string
	Data           NotificationData
}

type NotificationModel struct {
	dbConnectionPool db.DBConnectionPool
}

const notificationColumns = "id, organization_id, type, recipient_id, data, status, created_at, updated_at"

// Insert enqueues a pending notification.
func (m *NotificationModel) Insert(ctx context.Context, sqlExec db.SQLExecuter, insert NotificationInsert) (*Notification, error) {
	query := `
		INSERT INTO notifications
			(id, organization_id, type, recipient_id, data, status)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			` + notificationColumns

	var notification Notification
	err := sqlExec.GetContext(ctx, &notification, query,
		uuid.NewString(), insert.OrganizationID, insert.Type, insert.RecipientID, insert.Data, PendingNotificationStatus)
	if err != nil {
		return nil, fmt.Errorf("inserting %s notification: %w", insert.Type, err)
	}
	return &notification, nil
}

// GetAllByType returns the organization's notifications of the given type, oldest first.
func (m *NotificationModel) GetAllByType(ctx context.Context, sqlExec db.SQLExecuter, organizationID string, notificationType NotificationType) ([]*Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE organization_id = $1 AND type = $2 ORDER BY created_at ASC, id ASC"

	notifications := []*Notification{}
	if err := sqlExec.SelectContext(ctx, &notifications, query, organizationID, notificationType); err != nil {
		return nil, fmt.Errorf("querying %s notifications: %w", notificationType, err)
	}
	return notifications, nil
}
