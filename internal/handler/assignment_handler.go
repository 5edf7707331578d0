package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/dto"
	"github.com/document-requests-api/internal/service"
)

// multipartOverhead - запас на заголовки и поле note сверх размера файла
const multipartOverhead = 1 << 20

// AssignmentHandler - загрузка версий и рецензирование назначений
type AssignmentHandler struct {
	base
	submissions    service.SubmissionService
	reviews        service.ReviewService
	maxUploadBytes int64
}

func NewAssignmentHandler(
	submissions service.SubmissionService,
	reviews service.ReviewService,
	maxUploadMB int,
	logger *slog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		base:           newBase(logger),
		submissions:    submissions,
		reviews:        reviews,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Upload принимает multipart форму с полями file и note
func (h *AssignmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/assignments/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "file too large", "")
			return
		}
		h.respondError(w, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}

	var note *string
	if v := strings.TrimSpace(r.FormValue("note")); v != "" {
		note = &v
	}

	doc, err := h.submissions.Submit(r.Context(), id, principal, service.FileUpload{
		FileName: header.Filename,
		Data:     data,
	}, note)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *AssignmentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/assignments/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	docs, err := h.submissions.ListDocuments(r.Context(), id, principal)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, toDocumentResponse(&docs[i]))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *AssignmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := extractID(r, "/assignments/")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	var req dto.ReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	assignment, err := h.reviews.Review(r.Context(), id, principal, domain.AssignmentStatus(req.Decision), req.Note)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}
