package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User представляет сотрудника или служебную учётную запись.
// Создаётся при первом входе, никогда не удаляется физически.
type User struct {
	ID                int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email             string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name              string    `json:"name" gorm:"type:varchar(200);not null"`
	Role              Role      `json:"role" gorm:"type:varchar(32);not null;index"`
	Department        string    `json:"department" gorm:"type:varchar(200);index"`
	ManagedDepartment *string   `json:"managed_department" gorm:"type:varchar(200)"`
	IsActive          bool      `json:"is_active" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// DocumentRequest - кампания по сбору документов
type DocumentRequest struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Title            string          `json:"title" gorm:"type:varchar(200);not null"`
	Description      string          `json:"description" gorm:"type:text"`
	Deadline         time.Time       `json:"deadline" gorm:"not null"`
	Priority         RequestPriority `json:"priority" gorm:"type:varchar(16);not null"`
	Status           RequestStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	TargetType       TargetType      `json:"target_type" gorm:"type:varchar(32);not null"`
	TargetDepartment *string         `json:"target_department" gorm:"type:varchar(200)"`
	AcceptedFormats  string          `json:"accepted_formats" gorm:"type:varchar(255)"`
	MaxFileSizeMB    int             `json:"max_file_size_mb" gorm:"not null"`
	CreatedByID      int64           `json:"created_by_id" gorm:"not null;index"`
	AssignedToID     *int64          `json:"assigned_to_id" gorm:"index"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	CreatedBy   *User               `json:"-" gorm:"foreignKey:CreatedByID"`
	Slots       []DocumentSlot      `json:"slots,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	Assignments []RequestAssignment `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (DocumentRequest) TableName() string {
	return "document_requests"
}

// AcceptedFormatList возвращает список допустимых расширений в нижнем регистре.
// Пустой список означает отсутствие ограничений.
func (r *DocumentRequest) AcceptedFormatList() []string {
	var formats []string
	for _, f := range strings.Split(r.AcceptedFormats, ",") {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// MaxFileSizeBytes - точный лимит размера файла в байтах
func (r *DocumentRequest) MaxFileSizeBytes() int64 {
	return int64(r.MaxFileSizeMB) * 1024 * 1024
}

// DocumentSlot - именованное место под обязательный документ (1-5 на запрос)
type DocumentSlot struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID int64     `json:"request_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	SortOrder int       `json:"sort_order" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (DocumentSlot) TableName() string {
	return "document_slots"
}

// RequestAssignment связывает сотрудника с запросом документов.
// Одна строка на пару (запрос, сотрудник).
type RequestAssignment struct {
	ID             int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID      int64            `json:"request_id" gorm:"not null;uniqueIndex:idx_assignments_request_employee"`
	EmployeeID     int64            `json:"employee_id" gorm:"not null;uniqueIndex:idx_assignments_request_employee;index"`
	DueDate        time.Time        `json:"due_date" gorm:"not null;index"`
	Status         AssignmentStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	ReviewNote     *string          `json:"review_note" gorm:"type:text"`
	ReviewedByID   *int64           `json:"reviewed_by_id"`
	ReviewedAt     *time.Time       `json:"reviewed_at"`
	ReminderCount  int              `json:"reminder_count" gorm:"not null"`
	LastReminderAt *time.Time       `json:"last_reminder_at"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	Request   *DocumentRequest `json:"-" gorm:"foreignKey:RequestID"`
	Employee  *User            `json:"-" gorm:"foreignKey:EmployeeID"`
	Documents []Document       `json:"documents,omitempty" gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (RequestAssignment) TableName() string {
	return "request_assignments"
}

// Document - загруженная версия файла
type Document struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AssignmentID int64     `json:"assignment_id" gorm:"not null;uniqueIndex:idx_documents_assignment_version"`
	FileName     string    `json:"file_name" gorm:"type:varchar(255);not null"`
	FilePath     string    `json:"-" gorm:"type:varchar(512);not null"`
	FileSize     int64     `json:"file_size" gorm:"not null"`
	MimeType     string    `json:"mime_type" gorm:"type:varchar(255);not null"`
	Note         *string   `json:"note" gorm:"type:text"`
	Version      int       `json:"version" gorm:"not null;uniqueIndex:idx_documents_assignment_version"`
	IsLatest     bool      `json:"is_latest" gorm:"not null;index"`
	UploadedByID int64     `json:"uploaded_by_id" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	Assignment *RequestAssignment `json:"-" gorm:"foreignKey:AssignmentID"`
}

// TableName задаёт имя таблицы для GORM
func (Document) TableName() string {
	return "documents"
}

// Notification - уведомление внутри приложения
type Notification struct {
	ID        int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64            `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Title     string           `json:"title" gorm:"type:varchar(255);not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	Link      string           `json:"link" gorm:"type:varchar(512)"`
	IsRead    bool             `json:"is_read" gorm:"not null"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Notification) TableName() string {
	return "notifications"
}

// AuditLog - неизменяемая запись журнала аудита.
// UserID == nil означает действие системы.
type AuditLog struct {
	ID         int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     *int64         `json:"user_id" gorm:"index"`
	Action     AuditAction    `json:"action" gorm:"type:varchar(64);not null;index"`
	EntityType string         `json:"entity_type" gorm:"type:varchar(64)"`
	EntityID   *int64         `json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `json:"ip_address" gorm:"type:varchar(64)"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName задаёт имя таблицы для GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// SystemSetting - пара ключ/значение
type SystemSetting struct {
	Key       string    `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (SystemSetting) TableName() string {
	return "system_settings"
}

// SettingReminderDaysBefore - ключ настройки уровней напоминаний
const SettingReminderDaysBefore = "reminder_days_before"

// DefaultReminderDaysBefore используется, если настройка отсутствует
const DefaultReminderDaysBefore = "3,1"

// Models перечисляет все сущности для миграций и тестов
func Models() []any {
	return []any{
		&User{},
		&DocumentRequest{},
		&DocumentSlot{},
		&RequestAssignment{},
		&Document{},
		&Notification{},
		&AuditLog{},
		&SystemSetting{},
	}
}
