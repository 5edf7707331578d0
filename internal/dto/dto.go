package dto

import (
	"encoding/json"
	"time"
)

// CreateRequestRequest - запрос на создание запроса документов
type CreateRequestRequest struct {
	Title            string   `json:"title" validate:"required,min=1,max=200"`
	Description      string   `json:"description" validate:"max=5000"`
	Deadline         string   `json:"deadline" validate:"required,datetime=2006-01-02"`
	Priority         string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	TargetType       string   `json:"target_type" validate:"required,oneof=ALL_EMPLOYEES DEPARTMENT SPECIFIC"`
	TargetDepartment *string  `json:"target_department" validate:"required_if=TargetType DEPARTMENT,omitempty,min=1,max=200"`
	EmployeeIDs      []int64  `json:"employee_ids" validate:"required_if=TargetType SPECIFIC,omitempty,max=1000,dive,min=1"`
	AcceptedFormats  []string `json:"accepted_formats" validate:"omitempty,max=20,dive,min=1,max=10"`
	MaxFileSizeMB    int      `json:"max_file_size_mb" validate:"omitempty,min=1,max=100"`
	AssignedToID     *int64   `json:"assigned_to_id" validate:"omitempty,min=1"`
	Slots            []string `json:"slots" validate:"omitempty,max=5,dive,required,max=200"`
}

// ReviewRequest - решение по загруженному документу
type ReviewRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Note     *string `json:"note" validate:"omitempty,max=2000"`
}

// SendRemindersRequest - выборка назначений для ручного напоминания
type SendRemindersRequest struct {
	RequestID   *int64   `json:"request_id" validate:"omitempty,min=1"`
	Department  *string  `json:"department" validate:"omitempty,min=1,max=200"`
	EmployeeIDs []int64  `json:"employee_ids" validate:"omitempty,max=1000,dive,min=1"`
	Statuses    []string `json:"statuses" validate:"omitempty,dive,oneof=PENDING OVERDUE REJECTED"`
}

// ListNotificationsQuery - параметры списка уведомлений
type ListNotificationsQuery struct {
	UnreadOnly bool
	Limit      int `validate:"min=0,max=200"`
}

// RequestResponse - ответ с данными запроса
type RequestResponse struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Deadline         time.Time            `json:"deadline"`
	Priority         string               `json:"priority"`
	Status           string               `json:"status"`
	TargetType       string               `json:"target_type"`
	TargetDepartment *string              `json:"target_department,omitempty"`
	AcceptedFormats  []string             `json:"accepted_formats"`
	MaxFileSizeMB    int                  `json:"max_file_size_mb"`
	CreatedByID      int64                `json:"created_by_id"`
	AssignedToID     *int64               `json:"assigned_to_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	Slots            []SlotResponse       `json:"slots,omitempty"`
	Assignments      []AssignmentResponse `json:"assignments,omitempty"`
}

// SlotResponse - ответ с данными слота документа
type SlotResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// AssignmentResponse - ответ с данными назначения
type AssignmentResponse struct {
	ID             int64      `json:"id"`
	RequestID      int64      `json:"request_id"`
	EmployeeID     int64      `json:"employee_id"`
	EmployeeName   string     `json:"employee_name,omitempty"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	ReviewNote     *string    `json:"review_note,omitempty"`
	ReviewedByID   *int64     `json:"reviewed_by_id,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReminderCount  int        `json:"reminder_count"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`
}

// DocumentResponse - ответ с данными версии документа
type DocumentResponse struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	Note         *string   `json:"note,omitempty"`
	Version      int       `json:"version"`
	IsLatest     bool      `json:"is_latest"`
	UploadedByID int64     `json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationResponse - ответ с данными уведомления
type NotificationResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// MarkAllReadResponse - ответ на отметку всех уведомлений
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// AuditLogResponse - запись журнала аудита
type AuditLogResponse struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   *int64          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  string          `json:"ip_address,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
