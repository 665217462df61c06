package model

import "time"

// Notification kinds emitted by the order and SSM state machines.
const (
	NotificationOrderPaid          = "order_paid"
	NotificationOrderAccepted      = "order_accepted"
	NotificationOrderRejected      = "order_rejected"
	NotificationOrderDelivered     = "order_delivered"
	NotificationOrderCompleted     = "order_completed"
	NotificationOrderAutoCancelled = "order_auto_cancelled"
	NotificationSsmGraceStarted    = "ssm_grace_started"
	NotificationSsmGraceReminder   = "ssm_grace_reminder"
	NotificationSsmServicesHidden  = "ssm_services_hidden"
	NotificationSubscriptionActive = "subscription_activated"
)

// Notification is a persisted in-app notification. Delivery (push/email) is
// out of scope; consumers poll the unread count.
type Notification struct {
	ID        string // UUID
	UserID    string
	Kind      string
	Message   string
	ReadAt    *time.Time
	CreatedAt time.Time
}
