package domain

// AssignmentStatus - состояние назначения
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentSubmitted AssignmentStatus = "SUBMITTED"
	AssignmentOverdue   AssignmentStatus = "OVERDUE"
	AssignmentApproved  AssignmentStatus = "APPROVED"
	AssignmentRejected  AssignmentStatus = "REJECTED"
)

// AssignmentEvent - событие, меняющее состояние назначения
type AssignmentEvent string

const (
	EventUpload      AssignmentEvent = "upload"
	EventApprove     AssignmentEvent = "approve"
	EventReject      AssignmentEvent = "reject"
	EventMarkOverdue AssignmentEvent = "mark_overdue"
	// EventWithdraw - удалён последний оставшийся документ
	EventWithdraw AssignmentEvent = "withdraw"
)

// Next возвращает состояние после события или ошибку, если переход запрещён.
//
//	PENDING   --upload--> SUBMITTED
//	PENDING   --mark_overdue--> OVERDUE
//	OVERDUE   --upload--> SUBMITTED
//	SUBMITTED --upload--> SUBMITTED (новая версия)
//	SUBMITTED --approve--> APPROVED
//	SUBMITTED --reject--> REJECTED
//	REJECTED  --upload--> SUBMITTED
//	*         --withdraw--> PENDING (кроме APPROVED)
func (s AssignmentStatus) Next(event AssignmentEvent) (AssignmentStatus, error) {
	switch event {
	case EventUpload:
		switch s {
		case AssignmentPending, AssignmentOverdue, AssignmentSubmitted, AssignmentRejected:
			return AssignmentSubmitted, nil
		case AssignmentApproved:
			return s, ErrAlreadyApproved
		}
	case EventApprove, EventReject:
		if s != AssignmentSubmitted {
			return s, ErrNotSubmitted
		}
		if event == EventApprove {
			return AssignmentApproved, nil
		}
		return AssignmentRejected, nil
	case EventMarkOverdue:
		if s == AssignmentPending {
			return AssignmentOverdue, nil
		}
		return s, ErrNotPending
	case EventWithdraw:
		switch s {
		case AssignmentPending, AssignmentOverdue, AssignmentSubmitted, AssignmentRejected:
			return AssignmentPending, nil
		case AssignmentApproved:
			return s, ErrAlreadyApproved
		}
	}
	return s, ErrInvalidTransition
}

// Valid сообщает, известно ли состояние
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentSubmitted, AssignmentOverdue, AssignmentApproved, AssignmentRejected:
		return true
	}
	return false
}

// RequestStatus - состояние запроса документов
type RequestStatus string

const (
	RequestOpen      RequestStatus = "OPEN"
	RequestPendingHR RequestStatus = "PENDING_HR"
	RequestClosed    RequestStatus = "CLOSED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// AcceptsUploads - загрузка разрешена только в открытый запрос
func (s RequestStatus) AcceptsUploads() bool {
	return s == RequestOpen
}

// TargetType - способ выбора получателей запроса
type TargetType string

const (
	TargetAllEmployees TargetType = "ALL_EMPLOYEES"
	TargetDepartment   TargetType = "DEPARTMENT"
	TargetSpecific     TargetType = "SPECIFIC"
)

// RequestPriority - приоритет запроса
type RequestPriority string

const (
	PriorityLow    RequestPriority = "LOW"
	PriorityMedium RequestPriority = "MEDIUM"
	PriorityHigh   RequestPriority = "HIGH"
	PriorityUrgent RequestPriority = "URGENT"
)

// NotificationType - тип уведомления
type NotificationType string

const (
	NotificationNewRequest          NotificationType = "NEW_REQUEST"
	NotificationRequestCancelled    NotificationType = "REQUEST_CANCELLED"
	NotificationSubmission          NotificationType = "SUBMISSION"
	NotificationApproved            NotificationType = "APPROVED"
	NotificationRejected            NotificationType = "REJECTED"
	NotificationOverdue             NotificationType = "OVERDUE"
	NotificationDeadlineApproaching NotificationType = "DEADLINE_APPROACHING"
	NotificationReminder            NotificationType = "REMINDER"
)
