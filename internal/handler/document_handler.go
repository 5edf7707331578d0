package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/document-requests-api/internal/service"
)

// DocumentHandler - скачивание и удаление отдельных версий
type DocumentHandler struct {
	base
	submissions service.SubmissionService
}

func NewDocumentHandler(submissions service.SubmissionService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		base:        newBase(logger),
		submissions: submissions,
	}
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/documents/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid document id", err.Error())
		return
	}

	doc, data, err := h.submissions.Download(r.Context(), id, principal)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write document body", slog.Int64("document_id", id), slog.Any("error", err))
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/documents/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid document id", err.Error())
		return
	}

	if err := h.submissions.DeleteDocument(r.Context(), id, principal); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
