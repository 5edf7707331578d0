package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/document-requests-api/internal/dto"
	"github.com/document-requests-api/internal/service"
)

// NotificationHandler - входящие уведомления текущего пользователя
type NotificationHandler struct {
	base
	inbox service.NotificationService
}

func NewNotificationHandler(inbox service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		base:  newBase(logger),
		inbox: inbox,
	}
}

// List поддерживает параметры ?unread=true и ?limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var query dto.ListNotificationsQuery
	if v := r.URL.Query().Get("unread"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid unread parameter", err.Error())
			return
		}
		query.UnreadOnly = unread
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid limit parameter", err.Error())
			return
		}
		query.Limit = limit
	}
	if err := h.validator.Struct(query); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	list, err := h.inbox.List(r.Context(), principal, query.UnreadOnly, query.Limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toNotificationResponse(&list[i]))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/notifications/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid notification id", err.Error())
		return
	}

	if err := h.inbox.MarkRead(r.Context(), principal, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	n, err := h.inbox.MarkAllRead(r.Context(), principal)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.MarkAllReadResponse{Updated: n})
}
