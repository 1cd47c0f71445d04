package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

var (
	storeChannels    = []enums.NotificationChannel{enums.NotificationChannelInApp, enums.NotificationChannelRealtime, enums.NotificationChannelAnalytics}
	customerChannels = []enums.NotificationChannel{enums.NotificationChannelChatbot}
)

func orderLink(id uuid.UUID) *string {
	link := "/orders/" + id.String()
	return &link
}

func payloadFor(order *models.Order, category enums.NotificationCategory) notifications.Payload {
	orderID := order.ID
	customerID := order.CustomerID
	total := order.TotalAmount
	payload := notifications.Payload{
		Type:        category,
		OrderID:     &orderID,
		OrderNumber: order.OrderNumber,
		StoreID:     order.StoreID,
		CustomerID:  &customerID,
		TotalAmount: &total,
		Currency:    order.Currency,
	}
	switch category {
	case enums.NotificationCategoryOrderRejected:
		payload.Reason = order.RejectionReason
	case enums.NotificationCategoryOrderCancelled:
		payload.Reason = order.CancellationReason
	case enums.NotificationCategoryOrderShipped:
		payload.TrackingNumber = order.TrackingNumber
		payload.Carrier = order.Carrier
	}
	return payload
}

func customerRecipient(customer *models.Customer) notifications.Recipient {
	return notifications.Recipient{
		Kind:    enums.RecipientKindCustomer,
		ID:      customer.ID,
		StoreID: customer.StoreID,
		ChatID:  customer.ChatID,
		Name:    customer.Name,
	}
}

// createdEvents tells the store about a new order and confirms it to the customer.
func createdEvents(order *models.Order, customer *models.Customer) []notifications.Event {
	category := enums.NotificationCategoryOrderCreated
	events := []notifications.Event{{
		ID:         uuid.New(),
		Category:   category,
		Priority:   enums.NotificationPriorityHigh,
		Title:      "New order " + order.OrderNumber,
		Message:    fmt.Sprintf("Order %s for %s %s is waiting for payment confirmation.", order.OrderNumber, order.TotalAmount.StringFixed(2), order.Currency),
		Link:       orderLink(order.ID),
		Recipients: []notifications.Recipient{notifications.StoreRecipient(order.StoreID)},
		Channels:   storeChannels,
		Payload:    payloadFor(order, category),
	}}
	if customer != nil {
		events = append(events, notifications.Event{
			ID:         uuid.New(),
			Category:   category,
			Priority:   enums.NotificationPriorityNormal,
			Title:      "Order received",
			Message:    fmt.Sprintf("Thanks! Your order %s totals %s %s. Please send your transfer receipt.", order.OrderNumber, order.TotalAmount.StringFixed(2), order.Currency),
			Recipients: []notifications.Recipient{customerRecipient(customer)},
			Channels:   customerChannels,
			Payload:    payloadFor(order, category),
		})
	}
	return events
}

// transitionEvents notifies the customer of the order's new status and records
// it in the store inbox, console and analytics.
func transitionEvents(order *models.Order, customer *models.Customer) []notifications.Event {
	category, priority, title, message := describeStatus(order)
	events := []notifications.Event{{
		ID:         uuid.New(),
		Category:   category,
		Priority:   priority,
		Title:      title,
		Message:    message,
		Link:       orderLink(order.ID),
		Recipients: []notifications.Recipient{notifications.StoreRecipient(order.StoreID)},
		Channels:   storeChannels,
		Payload:    payloadFor(order, category),
	}}
	if customer != nil {
		events = append(events, notifications.Event{
			ID:         uuid.New(),
			Category:   category,
			Priority:   priority,
			Title:      title,
			Message:    message,
			Recipients: []notifications.Recipient{customerRecipient(customer)},
			Channels:   customerChannels,
			Payload:    payloadFor(order, category),
		})
	}
	return events
}

func describeStatus(order *models.Order) (enums.NotificationCategory, enums.NotificationPriority, string, string) {
	number := order.OrderNumber
	switch order.Status {
	case enums.OrderStatusPaid:
		return enums.NotificationCategoryOrderPaid, enums.NotificationPriorityNormal,
			"Payment confirmed", fmt.Sprintf("Payment for order %s has been confirmed. We are preparing your package.", number)
	case enums.OrderStatusRejected:
		return enums.NotificationCategoryOrderRejected, enums.NotificationPriorityHigh,
			"Order rejected", fmt.Sprintf("Order %s was rejected: %s", number, deref(order.RejectionReason))
	case enums.OrderStatusShipped:
		msg := fmt.Sprintf("Order %s has been shipped.", number)
		if order.TrackingNumber != nil {
			msg = fmt.Sprintf("Order %s has been shipped via %s, tracking number %s.", number, deref(order.Carrier), *order.TrackingNumber)
		}
		return enums.NotificationCategoryOrderShipped, enums.NotificationPriorityNormal, "Order shipped", msg
	case enums.OrderStatusDelivered:
		return enums.NotificationCategoryOrderDelivered, enums.NotificationPriorityLow,
			"Order delivered", fmt.Sprintf("Order %s has been delivered. Thank you for shopping with us!", number)
	case enums.OrderStatusCancelled:
		return enums.NotificationCategoryOrderCancelled, enums.NotificationPriorityHigh,
			"Order cancelled", fmt.Sprintf("Order %s was cancelled: %s", number, deref(order.CancellationReason))
	}
	return enums.NotificationCategoryOrderCreated, enums.NotificationPriorityNormal, "Order updated", "Order " + number + " was updated."
}

// reminderEvent nudges store admins about an order still awaiting review.
func reminderEvent(order *models.Order, age string) notifications.Event {
	category := enums.NotificationCategoryOrderReminder
	return notifications.Event{
		ID:         uuid.New(),
		Category:   category,
		Priority:   enums.NotificationPriorityHigh,
		Title:      "Order " + order.OrderNumber + " awaits review",
		Message:    fmt.Sprintf("Order %s has been waiting for payment confirmation for %s.", order.OrderNumber, age),
		Link:       orderLink(order.ID),
		Recipients: []notifications.Recipient{notifications.StoreRecipient(order.StoreID)},
		Channels:   []enums.NotificationChannel{enums.NotificationChannelInApp, enums.NotificationChannelRealtime},
		Payload:    payloadFor(order, category),
	}
}

func deref(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}
