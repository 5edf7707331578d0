// Package testutil содержит вспомогательные функции для тестов с SQLite в памяти.
package testutil

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB открывает чистую базу SQLite в памяти со всеми таблицами.
// Пул ограничен одним соединением: каждое соединение ":memory:" - отдельная база.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// Logger возвращает логгер, который ничего не пишет
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Date возвращает полночь UTC указанного дня
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateUser создаёт активного пользователя
func CreateUser(t testing.TB, db *gorm.DB, name string, role domain.Role, department string) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:      name + "@example.com",
		Name:       name,
		Role:       role,
		Department: department,
		IsActive:   true,
	}
	if role == domain.RoleDepartmentHead {
		dept := department
		user.ManagedDepartment = &dept
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateRequest создаёт открытый запрос
func CreateRequest(t testing.TB, db *gorm.DB, title string, createdBy int64, deadline time.Time) *domain.DocumentRequest {
	t.Helper()
	req := &domain.DocumentRequest{
		Title:           title,
		Deadline:        deadline,
		Priority:        domain.PriorityMedium,
		Status:          domain.RequestOpen,
		TargetType:      domain.TargetSpecific,
		AcceptedFormats: "pdf",
		MaxFileSizeMB:   1,
		CreatedByID:     createdBy,
	}
	if err := db.Omit("Assignments", "CreatedBy", "Slots").Create(req).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

// CreateAssignment создаёт назначение с заданным статусом
func CreateAssignment(t testing.TB, db *gorm.DB, requestID, employeeID int64, due time.Time, status domain.AssignmentStatus) *domain.RequestAssignment {
	t.Helper()
	a := &domain.RequestAssignment{
		RequestID:  requestID,
		EmployeeID: employeeID,
		DueDate:    due,
		Status:     status,
	}
	if err := db.Omit("Request", "Employee", "Documents").Create(a).Error; err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}

// ReloadAssignment перечитывает назначение из базы
func ReloadAssignment(t testing.TB, db *gorm.DB, id int64) *domain.RequestAssignment {
	t.Helper()
	var a domain.RequestAssignment
	if err := db.First(&a, id).Error; err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	return &a
}

// PDF - минимальное содержимое, которое распознаётся как application/pdf
var PDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
