package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/repository"
	"gorm.io/datatypes"
)

type ctxKey string

const (
	clientIPKey  ctxKey = "audit_client_ip"
	requestIDKey ctxKey = "audit_request_id"
)

// WithClientIP прикрепляет IP клиента к контексту для записи аудита
func WithClientIP(ctx context.Context, ip string) context.Context {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

// WithRequestID прикрепляет идентификатор запроса к контексту
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// RequestIDFromContext возвращает идентификатор запроса, если он есть
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

// ClientIPFromContext возвращает IP клиента, если он есть
func ClientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, clientIPKey)
}

// Entry - одна запись аудита. ActorID == nil - действие системы.
type Entry struct {
	ActorID    *int64
	EntityType string
	EntityID   *int64
	Payload    domain.AuditPayload
}

// Sink добавляет записи в журнал аудита.
// Ошибки хранилища только логируются и никогда не возвращаются вызывающему.
type Sink struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewSink создаёт новый экземпляр журнала
func NewSink(repo repository.AuditRepository, logger *slog.Logger) *Sink {
	return &Sink{repo: repo, logger: logger}
}

// Record записывает событие. Не возвращает ошибок и не паникует.
func (s *Sink) Record(ctx context.Context, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, e, fmt.Errorf("panic: %v", r))
		}
	}()

	if e.Payload == nil {
		s.fail(ctx, e, fmt.Errorf("audit payload is required"))
		return
	}

	details, err := json.Marshal(e.Payload)
	if err != nil {
		s.fail(ctx, e, err)
		return
	}

	entry := &domain.AuditLog{
		UserID:     e.ActorID,
		Action:     e.Payload.AuditAction(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    datatypes.JSON(details),
		IPAddress:  ClientIPFromContext(ctx),
	}

	// Запись аудита не должна зависеть от отмены исходного запроса
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.fail(ctx, e, err)
	}
}

func (s *Sink) fail(ctx context.Context, e Entry, err error) {
	metrics.SideEffectFailuresTotal.WithLabelValues("audit").Inc()
	action := ""
	if e.Payload != nil {
		action = string(e.Payload.AuditAction())
	}
	s.logger.Error("failed to write audit log",
		slog.String("action", action),
		slog.String("entity_type", e.EntityType),
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.Any("error", err),
	)
}
