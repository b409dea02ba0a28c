package adaptor

import (
	"net/http"

	"carpool-api/internal/dto/request"
	"carpool-api/internal/usecase"
	"carpool-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service usecase.NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service usecase.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With(zap.String("handler", "notification")),
	}
}

// ListNotifications handles GET /api/notifications?unread_only=&page=&per_page=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var page request.PaginatedRequest
	var err error
	if page.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, h.log, err, "list notifications")
		return
	}
	if page.PerPage, err = queryInt(r, "per_page", utils.DefaultPerPage); err != nil {
		writeError(w, h.log, err, "list notifications")
		return
	}
	unreadOnly := utils.ParseBool(r.URL.Query().Get("unread_only"))

	list, err := h.service.List(r.Context(), actor, unreadOnly, &page)
	if err != nil {
		writeError(w, h.log, err, "list notifications")
		return
	}

	utils.ResponseSuccess(w, "Notifications retrieved successfully", list)
}

// CreateNotification handles POST /api/notifications
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.CreateNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		writeError(w, h.log, err, "create notification")
		return
	}

	utils.ResponseCreated(w, "Notification created successfully", n)
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	n, err := h.service.MarkRead(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "mark notification read")
		return
	}

	utils.ResponseSuccess(w, "Notification marked as read", n)
}

// DeleteNotification handles DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err, "delete notification")
		return
	}

	utils.ResponseSuccess(w, "Notification deleted successfully", nil)
}
