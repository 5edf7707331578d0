package handler

import (
	"encoding/json"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/dto"
)

func toRequestResponse(req *domain.DocumentRequest, assignments []domain.RequestAssignment) dto.RequestResponse {
	resp := dto.RequestResponse{
		ID:               req.ID,
		Title:            req.Title,
		Description:      req.Description,
		Deadline:         req.Deadline,
		Priority:         string(req.Priority),
		Status:           string(req.Status),
		TargetType:       string(req.TargetType),
		TargetDepartment: req.TargetDepartment,
		AcceptedFormats:  req.AcceptedFormatList(),
		MaxFileSizeMB:    req.MaxFileSizeMB,
		CreatedByID:      req.CreatedByID,
		AssignedToID:     req.AssignedToID,
		CreatedAt:        req.CreatedAt,
	}
	if resp.AcceptedFormats == nil {
		resp.AcceptedFormats = []string{}
	}

	for _, s := range req.Slots {
		resp.Slots = append(resp.Slots, dto.SlotResponse{ID: s.ID, Name: s.Name, SortOrder: s.SortOrder})
	}
	for i := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(&assignments[i]))
	}
	return resp
}

func toAssignmentResponse(a *domain.RequestAssignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:             a.ID,
		RequestID:      a.RequestID,
		EmployeeID:     a.EmployeeID,
		DueDate:        a.DueDate,
		Status:         string(a.Status),
		ReviewNote:     a.ReviewNote,
		ReviewedByID:   a.ReviewedByID,
		ReviewedAt:     a.ReviewedAt,
		ReminderCount:  a.ReminderCount,
		LastReminderAt: a.LastReminderAt,
	}
	if a.Employee != nil {
		resp.EmployeeName = a.Employee.Name
	}
	return resp
}

func toDocumentResponse(d *domain.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:           d.ID,
		AssignmentID: d.AssignmentID,
		FileName:     d.FileName,
		FileSize:     d.FileSize,
		MimeType:     d.MimeType,
		Note:         d.Note,
		Version:      d.Version,
		IsLatest:     d.IsLatest,
		UploadedByID: d.UploadedByID,
		CreatedAt:    d.CreatedAt,
	}
}

func toNotificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func toAuditLogResponse(l *domain.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		Action:     string(l.Action),
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    json.RawMessage(l.Details),
		IPAddress:  l.IPAddress,
		CreatedAt:  l.CreatedAt,
	}
}
