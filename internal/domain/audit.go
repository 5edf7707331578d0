package domain

import "time"

// AuditAction - вид записи аудита
type AuditAction string

const (
	ActionCreateRequest   AuditAction = "CREATE_REQUEST"
	ActionCancelRequest   AuditAction = "CANCEL_REQUEST"
	ActionUploadDocument  AuditAction = "UPLOAD_DOCUMENT"
	ActionDeleteDocument  AuditAction = "DELETE_DOCUMENT"
	ActionApproveDocument AuditAction = "APPROVE_DOCUMENT"
	ActionRejectDocument  AuditAction = "REJECT_DOCUMENT"
	ActionMarkOverdue     AuditAction = "MARK_OVERDUE"
	ActionSendReminders   AuditAction = "SEND_REMINDERS"
)

// Названия сущностей в журнале аудита
const (
	EntityRequest    = "DocumentRequest"
	EntityAssignment = "RequestAssignment"
	EntityDocument   = "Document"
)

// AuditPayload - типизированное содержимое записи аудита.
// Каждому действию соответствует ровно один тип.
type AuditPayload interface {
	AuditAction() AuditAction
}

type CreateRequestDetails struct {
	Title           string     `json:"title"`
	TargetType      TargetType `json:"targetType"`
	AssignmentCount int        `json:"assignmentCount"`
}

func (CreateRequestDetails) AuditAction() AuditAction { return ActionCreateRequest }

type CancelRequestDetails struct {
	Title           string `json:"title"`
	AssignmentCount int    `json:"assignmentCount"`
}

func (CancelRequestDetails) AuditAction() AuditAction { return ActionCancelRequest }

type UploadDocumentDetails struct {
	FileName     string `json:"fileName"`
	RequestTitle string `json:"requestTitle"`
	Version      int    `json:"version"`
}

func (UploadDocumentDetails) AuditAction() AuditAction { return ActionUploadDocument }

type DeleteDocumentDetails struct {
	FileName          string `json:"fileName"`
	Version           int    `json:"version"`
	RequestTitle      string `json:"requestTitle"`
	RevertedToPending bool   `json:"revertedToPending"`
}

func (DeleteDocumentDetails) AuditAction() AuditAction { return ActionDeleteDocument }

type ApproveDocumentDetails struct {
	RequestTitle string `json:"requestTitle"`
	EmployeeName string `json:"employeeName"`
	Note         string `json:"note,omitempty"`
}

func (ApproveDocumentDetails) AuditAction() AuditAction { return ActionApproveDocument }

type RejectDocumentDetails struct {
	RequestTitle string `json:"requestTitle"`
	EmployeeName string `json:"employeeName"`
	Note         string `json:"note"`
}

func (RejectDocumentDetails) AuditAction() AuditAction { return ActionRejectDocument }

// OverdueAssignment - элемент сводки просроченных назначений
type OverdueAssignment struct {
	AssignmentID int64     `json:"assignmentId"`
	EmployeeID   int64     `json:"employeeId"`
	RequestTitle string    `json:"requestTitle"`
	DueDate      time.Time `json:"dueDate"`
}

type MarkOverdueDetails struct {
	OverdueCount int                 `json:"overdueCount"`
	Assignments  []OverdueAssignment `json:"assignments"`
}

func (MarkOverdueDetails) AuditAction() AuditAction { return ActionMarkOverdue }

type SendRemindersDetails struct {
	AssignmentCount int     `json:"assignmentCount"`
	RequestCount    int     `json:"requestCount"`
	EmailsQueued    int     `json:"emailsQueued"`
	AssignmentIDs   []int64 `json:"assignmentIds"`
}

func (SendRemindersDetails) AuditAction() AuditAction { return ActionSendReminders }
