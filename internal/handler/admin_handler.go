package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/dto"
	"github.com/document-requests-api/internal/scheduler"
	"github.com/document-requests-api/internal/service"
)

// SchedulerRunner запускает один проход планировщика
type SchedulerRunner interface {
	Run(ctx context.Context) (*scheduler.Result, error)
}

// AdminHandler - служебные операции администратора
type AdminHandler struct {
	base
	scheduler SchedulerRunner
	audit     service.AuditService
}

func NewAdminHandler(runner SchedulerRunner, audit service.AuditService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		base:      newBase(logger),
		scheduler: runner,
		audit:     audit,
	}
}

// RunScheduler выполняет проход синхронно и возвращает его итог.
// Обрыв соединения клиента не прерывает проход.
func (h *AdminHandler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if principal.Role != domain.RoleAdmin {
		h.handleServiceError(w, domain.ErrAdminOnly)
		return
	}

	result, err := h.scheduler.Run(context.WithoutCancel(r.Context()))
	if errors.Is(err, scheduler.ErrAlreadyRunning) {
		h.respondError(w, http.StatusConflict, "scheduler run already in progress", "")
		return
	}
	if err != nil {
		h.logger.Error("manual scheduler run finished with errors", slog.Any("error", err))
		if result == nil {
			h.respondError(w, http.StatusInternalServerError, "scheduler run failed", "")
			return
		}
	}

	h.respondJSON(w, http.StatusOK, result)
}

// AuditLogs поддерживает параметры ?action=X и ?limit=N
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var action *domain.AuditAction
	if v := r.URL.Query().Get("action"); v != "" {
		a := domain.AuditAction(v)
		action = &a
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respondError(w, http.StatusBadRequest, "invalid limit parameter", "")
			return
		}
		limit = n
	}

	logs, err := h.audit.ListRecent(r.Context(), principal, action, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		resp = append(resp, toAuditLogResponse(&logs[i]))
	}
	h.respondJSON(w, http.StatusOK, resp)
}
