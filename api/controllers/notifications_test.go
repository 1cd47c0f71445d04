package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/api/middleware"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

type stubInbox struct {
	listed   notifications.ListParams
	marked   []uuid.UUID
	allStore uuid.UUID
	known    map[uuid.UUID]bool
}

func (s *stubInbox) List(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.listed = params
	return &notifications.ListResult{
		Items:  []models.Notification{{ID: uuid.New(), StoreID: params.StoreID, Title: "New order 0326-00001"}},
		Cursor: "next",
		Unread: 3,
	}, nil
}

func (s *stubInbox) MarkRead(_ context.Context, storeID, notificationID uuid.UUID) error {
	if !s.known[notificationID] {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	s.marked = append(s.marked, notificationID)
	return nil
}

func (s *stubInbox) MarkAllRead(_ context.Context, storeID uuid.UUID) (int64, error) {
	s.allStore = storeID
	return 3, nil
}

type stubBroadcaster struct {
	input notifications.BroadcastInput
	actor auth.Actor
}

func (s *stubBroadcaster) Broadcast(_ context.Context, actor auth.Actor, input notifications.BroadcastInput) (*notifications.BulkResult, error) {
	s.actor, s.input = actor, input
	return &notifications.BulkResult{Success: 4, Failed: 1}, nil
}

func inboxRouter(inbox Inbox, broadcaster Broadcaster) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), testActor)))
		})
	})
	r.Route("/stores/{storeId}/notifications", func(r chi.Router) {
		r.Get("/", ListNotifications(inbox, nil))
		r.Post("/read-all", MarkAllNotificationsRead(inbox, nil))
		r.Post("/{notificationId}/read", MarkNotificationRead(inbox, nil))
		r.Post("/broadcast", Broadcast(broadcaster, nil))
	})
	return r
}

func TestListNotificationsParsesQuery(t *testing.T) {
	inbox := &stubInbox{}
	storeID := uuid.New()
	h := inboxRouter(inbox, &stubBroadcaster{})

	resp := do(t, h, http.MethodGet, "/stores/"+storeID.String()+"/notifications/?limit=5&cursor=abc&unreadOnly=true", "", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, storeID, inbox.listed.StoreID)
	assert.Equal(t, 5, inbox.listed.Limit)
	assert.Equal(t, "abc", inbox.listed.Cursor)
	assert.True(t, inbox.listed.UnreadOnly)

	data := decodeData(t, resp)
	assert.EqualValues(t, 3, data["unread"])
	assert.Equal(t, "next", data["cursor"])
	assert.Len(t, data["items"], 1)

	resp = do(t, h, http.MethodGet, "/stores/"+storeID.String()+"/notifications/?unreadOnly=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = do(t, h, http.MethodGet, "/stores/"+storeID.String()+"/notifications/?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = do(t, h, http.MethodGet, "/stores/nope/notifications/", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMarkNotificationsRead(t *testing.T) {
	known := uuid.New()
	inbox := &stubInbox{known: map[uuid.UUID]bool{known: true}}
	storeID := uuid.New()
	h := inboxRouter(inbox, &stubBroadcaster{})
	base := "/stores/" + storeID.String() + "/notifications/"

	resp := do(t, h, http.MethodPost, base+known.String()+"/read", "", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []uuid.UUID{known}, inbox.marked)
	assert.Equal(t, "read", decodeData(t, resp)["status"])

	resp = do(t, h, http.MethodPost, base+uuid.NewString()+"/read", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = do(t, h, http.MethodPost, base+"nope/read", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPost, base+"read-all", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, storeID, inbox.allStore)
	assert.EqualValues(t, 3, decodeData(t, resp)["updated"])
}

func TestBroadcastMapsBody(t *testing.T) {
	broadcaster := &stubBroadcaster{}
	storeID := uuid.New()
	h := inboxRouter(&stubInbox{}, broadcaster)
	path := "/stores/" + storeID.String() + "/notifications/broadcast"

	resp := do(t, h, http.MethodPost, path, `{"title":"Promo","message":"Diskon 10% hari ini","priority":"high"}`, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, storeID, broadcaster.input.StoreID)
	assert.Equal(t, "Diskon 10% hari ini", broadcaster.input.Message)
	assert.Equal(t, enums.NotificationPriorityHigh, broadcaster.input.Priority)
	assert.Equal(t, testActor, broadcaster.actor)
	data := decodeData(t, resp)
	assert.EqualValues(t, 4, data["success"])
	assert.EqualValues(t, 1, data["failed"])

	resp = do(t, h, http.MethodPost, path, `{"title":"Promo"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
