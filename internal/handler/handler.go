package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/dto"
	"github.com/document-requests-api/internal/middleware"
	"github.com/go-playground/validator/v10"
)

// base - общие методы ответов для всех хендлеров
type base struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newBase(logger *slog.Logger) base {
	return base{validator: validator.New(), logger: logger}
}

// principal возвращает принципала или отвечает 401
func (h *base) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required", "")
	}
	return p, ok
}

func (h *base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}
	return true
}

// handleServiceError переводит вид бизнес-ошибки в HTTP статус
func (h *base) handleServiceError(w http.ResponseWriter, err error) {
	reason := err.Error()
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		reason = domainErr.Reason
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, http.StatusNotFound, reason, "")
	case errors.Is(err, domain.ErrForbidden):
		h.respondError(w, http.StatusForbidden, reason, "")
	case errors.Is(err, domain.ErrInvalidState):
		h.respondError(w, http.StatusConflict, reason, "")
	case errors.Is(err, domain.ErrValidation):
		h.respondError(w, http.StatusBadRequest, reason, "")
	case errors.Is(err, domain.ErrDependency):
		h.logger.Error("dependency failure", slog.Any("error", err))
		h.respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable", "")
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *base) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *base) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}

// extractID возвращает числовой сегмент пути сразу после prefix
func extractID(r *http.Request, prefix string) (int64, error) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		return 0, errors.New("id is required")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
