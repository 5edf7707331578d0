package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/repository"
)

const (
	maxSlots             = 5
	defaultMaxFileSizeMB = 10
)

// CreateRequestInput - параметры нового запроса документов
type CreateRequestInput struct {
	Title            string
	Description      string
	Deadline         time.Time
	Priority         domain.RequestPriority
	TargetType       domain.TargetType
	TargetDepartment *string
	EmployeeIDs      []int64
	AcceptedFormats  []string
	MaxFileSizeMB    int
	AssignedToID     *int64
	Slots            []string
}

// RequestDetails - запрос с видимыми принципалу назначениями
type RequestDetails struct {
	Request     *domain.DocumentRequest
	Assignments []domain.RequestAssignment
}

// RequestService определяет интерфейс жизненного цикла запросов
type RequestService interface {
	Create(ctx context.Context, principal domain.Principal, input CreateRequestInput) (*domain.DocumentRequest, error)
	Cancel(ctx context.Context, requestID int64, principal domain.Principal) error
	Get(ctx context.Context, requestID int64, principal domain.Principal) (*RequestDetails, error)
}

type requestService struct {
	tx          repository.Transactor
	requests    repository.RequestRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	notifier    Notifier
	audit       Auditor
	clock       clock.Clock
	logger      *slog.Logger
}

// NewRequestService создаёт новый экземпляр сервиса
func NewRequestService(
	tx repository.Transactor,
	requests repository.RequestRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	notifier Notifier,
	auditor Auditor,
	clk clock.Clock,
	logger *slog.Logger,
) RequestService {
	return &requestService{
		tx:          tx,
		requests:    requests,
		assignments: assignments,
		users:       users,
		notifier:    notifier,
		audit:       auditor,
		clock:       clk,
		logger:      logger,
	}
}

func (s *requestService) Create(ctx context.Context, principal domain.Principal, input CreateRequestInput) (*domain.DocumentRequest, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	caps := principal.Capabilities()
	if !caps.IsPrivileged() && !canTarget(caps, input) {
		return nil, domain.ErrCreateForbidden
	}

	targets, err := s.resolveTargets(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	// Руководитель отдела может выбрать только своих сотрудников
	if !caps.IsPrivileged() {
		for _, u := range targets {
			if !caps.CanCreateFor(u.Department) {
				return nil, domain.ErrCreateForbidden
			}
		}
	}

	maxSize := input.MaxFileSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxFileSizeMB
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	req := &domain.DocumentRequest{
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Deadline:         input.Deadline.UTC(),
		Priority:         priority,
		Status:           domain.RequestOpen,
		TargetType:       input.TargetType,
		TargetDepartment: input.TargetDepartment,
		AcceptedFormats:  normalizeFormats(input.AcceptedFormats),
		MaxFileSizeMB:    maxSize,
		CreatedByID:      principal.ID,
		AssignedToID:     input.AssignedToID,
	}
	for i, name := range input.Slots {
		req.Slots = append(req.Slots, domain.DocumentSlot{Name: strings.TrimSpace(name), SortOrder: i})
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, req); err != nil {
			return err
		}
		assignments := make([]domain.RequestAssignment, 0, len(targets))
		for _, u := range targets {
			assignments = append(assignments, domain.RequestAssignment{
				RequestID:  req.ID,
				EmployeeID: u.ID,
				DueDate:    req.Deadline,
				Status:     domain.AssignmentPending,
			})
		}
		return s.assignments.CreateBatch(ctx, assignments)
	})
	if err != nil {
		return nil, domain.DependencyError("create request", err)
	}

	s.notifier.RequestCreated(ctx, req, targets)
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityRequest,
		EntityID:   ptr(req.ID),
		Payload: domain.CreateRequestDetails{
			Title:           req.Title,
			TargetType:      req.TargetType,
			AssignmentCount: len(targets),
		},
	})

	s.logger.Info("document request created",
		slog.Int64("request_id", req.ID),
		slog.Int("assignments", len(targets)),
	)
	return req, nil
}

func (s *requestService) validate(input CreateRequestInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return domain.Validationf("Title is required")
	}
	// Срок - дата; сегодняшняя дата допустима
	if input.Deadline.Before(clock.StartOfDay(s.clock.Now(), time.UTC)) {
		return domain.Validationf("Deadline cannot be in the past")
	}
	if input.MaxFileSizeMB < 0 {
		return domain.Validationf("Maximum file size must be positive")
	}
	if formats := normalizeFormats(input.AcceptedFormats); formats != "" {
		for _, f := range strings.Split(formats, ",") {
			if !knownFormat(f) {
				return domain.Validationf("Unsupported file format %s", f)
			}
		}
	}
	if len(input.Slots) > maxSlots {
		return domain.Validationf("A request can have at most %d document slots", maxSlots)
	}
	for _, name := range input.Slots {
		if strings.TrimSpace(name) == "" {
			return domain.Validationf("Document slot name is required")
		}
	}
	switch input.Priority {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
	default:
		return domain.Validationf("Unknown priority %s", input.Priority)
	}

	switch input.TargetType {
	case domain.TargetAllEmployees:
	case domain.TargetDepartment:
		if input.TargetDepartment == nil || strings.TrimSpace(*input.TargetDepartment) == "" {
			return domain.Validationf("Target department is required")
		}
	case domain.TargetSpecific:
		if len(input.EmployeeIDs) == 0 {
			return domain.Validationf("At least one employee must be selected")
		}
	default:
		return domain.Validationf("Unknown target type %s", input.TargetType)
	}
	return nil
}

// canTarget проверяет выбор получателей для непривилегированной роли
func canTarget(caps domain.Capabilities, input CreateRequestInput) bool {
	switch input.TargetType {
	case domain.TargetDepartment:
		return caps.CanCreateFor(*input.TargetDepartment)
	case domain.TargetSpecific:
		all, departments := caps.AccessibleDepartments()
		return all || len(departments) > 0
	}
	return false
}

func (s *requestService) resolveTargets(ctx context.Context, input CreateRequestInput) ([]domain.User, error) {
	var (
		users []domain.User
		err   error
	)
	switch input.TargetType {
	case domain.TargetAllEmployees:
		users, err = s.users.ListActiveEmployees(ctx, nil)
	case domain.TargetDepartment:
		dept := strings.TrimSpace(*input.TargetDepartment)
		users, err = s.users.ListActiveEmployees(ctx, &dept)
	case domain.TargetSpecific:
		users, err = s.users.ListActiveByIDs(ctx, uniqueIDs(input.EmployeeIDs))
	}
	if err != nil {
		return nil, domain.DependencyError("resolve targets", err)
	}
	return users, nil
}

func (s *requestService) Cancel(ctx context.Context, requestID int64, principal domain.Principal) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return domain.DependencyError("load request", err)
	}
	if req.CreatedByID != principal.ID && !principal.Capabilities().IsPrivileged() {
		return domain.ErrCancelForbidden
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, domain.RequestCancelled, domain.RequestOpen, domain.RequestPendingHR); err != nil {
		return domain.DependencyError("cancel request", err)
	}
	req.Status = domain.RequestCancelled

	assignments, err := s.assignments.ListByRequest(ctx, req.ID)
	if err != nil {
		// Отмена уже сохранена, без списка получателей уведомления не отправляются
		s.logger.Error("failed to load assignees for cancellation",
			slog.Int64("request_id", req.ID),
			slog.Any("error", err),
		)
	}
	assignees := make([]domain.User, 0, len(assignments))
	for _, a := range assignments {
		if a.Employee != nil {
			assignees = append(assignees, *a.Employee)
		}
	}

	s.notifier.RequestCancelled(ctx, req, assignees)
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityRequest,
		EntityID:   ptr(req.ID),
		Payload: domain.CancelRequestDetails{
			Title:           req.Title,
			AssignmentCount: len(assignments),
		},
	})
	return nil
}

func (s *requestService) Get(ctx context.Context, requestID int64, principal domain.Principal) (*RequestDetails, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, domain.DependencyError("load request", err)
	}
	assignments, err := s.assignments.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, domain.DependencyError("list assignments", err)
	}

	if principal.Capabilities().IsPrivileged() || req.CreatedByID == principal.ID {
		return &RequestDetails{Request: req, Assignments: assignments}, nil
	}

	visible := make([]domain.RequestAssignment, 0)
	for i := range assignments {
		a := &assignments[i]
		a.Request = req
		if canView(principal, a) {
			visible = append(visible, *a)
		}
	}
	if len(visible) == 0 {
		return nil, domain.ErrRequestNotFound
	}
	return &RequestDetails{Request: req, Assignments: visible}, nil
}

func normalizeFormats(formats []string) string {
	seen := make(map[string]bool, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return strings.Join(out, ",")
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
