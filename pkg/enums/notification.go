package enums

import "fmt"

// NotificationCategory classifies a notification event.
type NotificationCategory string

const (
	NotificationCategoryOrderCreated        NotificationCategory = "order_created"
	NotificationCategoryPaymentProofPending NotificationCategory = "payment_proof_pending"
	NotificationCategoryOrderPaid           NotificationCategory = "order_paid"
	NotificationCategoryOrderRejected       NotificationCategory = "order_rejected"
	NotificationCategoryOrderShipped        NotificationCategory = "order_shipped"
	NotificationCategoryOrderDelivered      NotificationCategory = "order_delivered"
	NotificationCategoryOrderCancelled      NotificationCategory = "order_cancelled"
	NotificationCategoryOrderReminder       NotificationCategory = "order_reminder"
	NotificationCategoryBroadcast           NotificationCategory = "broadcast"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryOrderCreated,
	NotificationCategoryPaymentProofPending,
	NotificationCategoryOrderPaid,
	NotificationCategoryOrderRejected,
	NotificationCategoryOrderShipped,
	NotificationCategoryOrderDelivered,
	NotificationCategoryOrderCancelled,
	NotificationCategoryOrderReminder,
	NotificationCategoryBroadcast,
}

func (n NotificationCategory) String() string {
	return string(n)
}

// IsValid checks whether the given category matches the canonical enum.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw strings into NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}

// NotificationPriority orders notifications for display and delivery.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

func (p NotificationPriority) IsValid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityNormal, NotificationPriorityHigh, NotificationPriorityUrgent:
		return true
	}
	return false
}

// NotificationChannel identifies a delivery channel.
type NotificationChannel string

const (
	NotificationChannelInApp     NotificationChannel = "in_app"
	NotificationChannelRealtime  NotificationChannel = "realtime"
	NotificationChannelChatbot   NotificationChannel = "chatbot"
	NotificationChannelAnalytics NotificationChannel = "analytics"
)

func (c NotificationChannel) String() string {
	return string(c)
}

// ParseNotificationChannel converts raw strings into NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	switch NotificationChannel(value) {
	case NotificationChannelInApp, NotificationChannelRealtime, NotificationChannelChatbot, NotificationChannelAnalytics:
		return NotificationChannel(value), nil
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}

// RecipientKind distinguishes who a notification is addressed to.
type RecipientKind string

const (
	RecipientKindCustomer RecipientKind = "customer"
	RecipientKindStore    RecipientKind = "store"
)
