package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	"github.com/angelmondragon/chatstore-backend/api/validators"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

// Inbox is the console's view of in-app notifications. Store access is
// checked by the router before these handlers run.
type Inbox interface {
	List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	MarkRead(ctx context.Context, storeID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// Broadcaster sends a store announcement to its chat-bot customers.
type Broadcaster interface {
	Broadcast(ctx context.Context, actor auth.Actor, input notifications.BroadcastInput) (*notifications.BulkResult, error)
}

type broadcastRequest struct {
	Title    string                     `json:"title,omitempty" validate:"omitempty,max=120"`
	Message  string                     `json:"message" validate:"required,max=1000"`
	Priority enums.NotificationPriority `json:"priority,omitempty"`
}

// ListNotifications returns paginated notifications for {storeId}.
func ListNotifications(svc Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := notifications.ListParams{
			StoreID: storeID,
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		params.UnreadOnly, err = validators.ParseQueryBool(r, "unreadOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func MarkNotificationRead(svc Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := uuidParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), storeID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

func MarkAllNotificationsRead(svc Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.MarkAllRead(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// Broadcast answers after every reachable customer was attempted.
func Broadcast(svc Broadcaster, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, err := actorAndStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req broadcastRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Broadcast(r.Context(), actor, notifications.BroadcastInput{
			StoreID:  storeID,
			Title:    req.Title,
			Message:  req.Message,
			Priority: req.Priority,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
