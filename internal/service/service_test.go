package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/notify"
	"github.com/document-requests-api/internal/repository"
	"github.com/document-requests-api/internal/storage"
	"github.com/document-requests-api/internal/testutil"
	"gorm.io/gorm"
)

// now - фиксированное время всех тестов сервиса
var now = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

// memStore - файловое хранилище в памяти
type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	seq     int
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, data []byte, pathHint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.seq++
	key := fmt.Sprintf("%s.%d", pathHint, s.seq)
	s.files[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *memStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *memStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// recordingQueue запоминает поставленные в очередь письма
type recordingQueue struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (q *recordingQueue) Enqueue(msg mailer.Message, _ *mailer.Batch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return true
}

func (q *recordingQueue) sent() []mailer.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]mailer.Message(nil), q.messages...)
}

// env собирает сервисы поверх SQLite в памяти
type env struct {
	db          *gorm.DB
	files       *memStore
	emails      *recordingQueue
	submissions SubmissionService
	reviews     ReviewService
	requests    RequestService
	reminders   ReminderService
	inbox       NotificationService
	auditLog    AuditService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger()
	clk := clock.Fixed{T: now}

	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	requests := repository.NewRequestRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	documents := repository.NewDocumentRepository(db)
	notifications := repository.NewNotificationRepository(db)

	files := newMemStore()
	emails := &recordingQueue{}
	dispatcher := notify.NewDispatcher(notifications, users, emails, "https://portal.example.com", logger)
	sink := audit.NewSink(repository.NewAuditRepository(db), logger)

	return &env{
		db:          db,
		files:       files,
		emails:      emails,
		submissions: NewSubmissionService(tx, assignments, documents, files, dispatcher, sink, logger),
		reviews:     NewReviewService(assignments, dispatcher, sink, clk, logger),
		requests:    NewRequestService(tx, requests, assignments, users, dispatcher, sink, clk, logger),
		reminders:   NewReminderService(assignments, dispatcher, sink, clk, logger),
		inbox:       NewNotificationService(notifications),
		auditLog:    NewAuditService(repository.NewAuditRepository(db)),
	}
}

func principalOf(u *domain.User) domain.Principal {
	p := domain.Principal{ID: u.ID, Role: u.Role, Department: u.Department}
	if u.ManagedDepartment != nil {
		p.ManagedDepartment = *u.ManagedDepartment
	}
	return p
}

func pdf(name string) FileUpload {
	return FileUpload{FileName: name, Data: testutil.PDF}
}

func documentsOf(t *testing.T, db *gorm.DB, assignmentID int64) []domain.Document {
	t.Helper()
	var docs []domain.Document
	if err := db.Where("assignment_id = ?", assignmentID).Order("version ASC").Find(&docs).Error; err != nil {
		t.Fatalf("query documents: %v", err)
	}
	return docs
}

func auditLogs(t *testing.T, db *gorm.DB, action domain.AuditAction) []domain.AuditLog {
	t.Helper()
	var logs []domain.AuditLog
	if err := db.Where("action = ?", action).Find(&logs).Error; err != nil {
		t.Fatalf("query audit logs: %v", err)
	}
	return logs
}

func countNotifications(t *testing.T, db *gorm.DB, userID int64, kind domain.NotificationType) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Notification{}).Where("user_id = ? AND type = ?", userID, kind).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

func latestCount(docs []domain.Document) int {
	n := 0
	for _, d := range docs {
		if d.IsLatest {
			n++
		}
	}
	return n
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected error of kind %v, got %v", kind, err)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
