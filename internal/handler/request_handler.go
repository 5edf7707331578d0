package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/dto"
	"github.com/document-requests-api/internal/service"
)

// RequestHandler - запросы документов и ручные напоминания
type RequestHandler struct {
	base
	requests  service.RequestService
	reminders service.ReminderService
}

func NewRequestHandler(
	requests service.RequestService,
	reminders service.ReminderService,
	logger *slog.Logger,
) *RequestHandler {
	return &RequestHandler{
		base:      newBase(logger),
		requests:  requests,
		reminders: reminders,
	}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	deadline, err := time.Parse(time.DateOnly, req.Deadline)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	created, err := h.requests.Create(r.Context(), principal, service.CreateRequestInput{
		Title:            req.Title,
		Description:      req.Description,
		Deadline:         deadline,
		Priority:         domain.RequestPriority(req.Priority),
		TargetType:       domain.TargetType(req.TargetType),
		TargetDepartment: req.TargetDepartment,
		EmployeeIDs:      req.EmployeeIDs,
		AcceptedFormats:  req.AcceptedFormats,
		MaxFileSizeMB:    req.MaxFileSizeMB,
		AssignedToID:     req.AssignedToID,
		Slots:            req.Slots,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toRequestResponse(created, nil))
}

func (h *RequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/requests/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request id", err.Error())
		return
	}

	details, err := h.requests.Get(r.Context(), id, principal)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toRequestResponse(details.Request, details.Assignments))
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/requests/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request id", err.Error())
		return
	}

	if err := h.requests.Cancel(r.Context(), id, principal); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req dto.SendRemindersRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	selection := service.ReminderSelection{
		RequestID:   req.RequestID,
		Department:  req.Department,
		EmployeeIDs: req.EmployeeIDs,
	}
	for _, s := range req.Statuses {
		selection.Statuses = append(selection.Statuses, domain.AssignmentStatus(s))
	}

	result, err := h.reminders.SendReminders(r.Context(), principal, selection)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
