package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/testutil"
)

func departmentInput(dept string) CreateRequestInput {
	return CreateRequestInput{
		Title:            "Annual medical check",
		Deadline:         now.Add(14 * 24 * time.Hour),
		TargetType:       domain.TargetDepartment,
		TargetDepartment: &dept,
		AcceptedFormats:  []string{".PDF", "jpg", "pdf"},
		Slots:            []string{"Certificate", "Receipt"},
	}
}

func assignmentsOf(t *testing.T, e *env, requestID int64) []domain.RequestAssignment {
	t.Helper()
	var list []domain.RequestAssignment
	if err := e.db.Where("request_id = ?", requestID).Order("employee_id ASC").Find(&list).Error; err != nil {
		t.Fatalf("query assignments: %v", err)
	}
	return list
}

func TestCreateRequest_DepartmentTargets(t *testing.T) {
	e := newEnv(t)
	hr := testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR")
	alice := testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")
	bob := testutil.CreateUser(t, e.db, "bob", domain.RoleEmployee, "IT")
	testutil.CreateUser(t, e.db, "carol", domain.RoleEmployee, "Sales")
	gone := testutil.CreateUser(t, e.db, "dave", domain.RoleEmployee, "IT")
	e.db.Model(gone).Update("is_active", false)

	req, err := e.requests.Create(context.Background(), principalOf(hr), departmentInput("IT"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != domain.RequestOpen || req.Priority != domain.PriorityMedium {
		t.Errorf("unexpected defaults: status %s priority %s", req.Status, req.Priority)
	}
	if req.AcceptedFormats != "pdf,jpg" {
		t.Errorf("expected normalized formats, got %q", req.AcceptedFormats)
	}
	if req.MaxFileSizeMB != defaultMaxFileSizeMB {
		t.Errorf("expected default max size, got %d", req.MaxFileSizeMB)
	}

	list := assignmentsOf(t, e, req.ID)
	if len(list) != 2 || list[0].EmployeeID != alice.ID || list[1].EmployeeID != bob.ID {
		t.Fatalf("expected assignments for alice and bob, got %+v", list)
	}
	for _, a := range list {
		if a.Status != domain.AssignmentPending || !a.DueDate.Equal(req.Deadline) {
			t.Errorf("unexpected assignment %+v", a)
		}
	}

	stored, err := e.requests.Get(context.Background(), req.ID, principalOf(hr))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Request.Slots) != 2 || stored.Request.Slots[0].Name != "Certificate" {
		t.Errorf("unexpected slots %+v", stored.Request.Slots)
	}

	if n := countNotifications(t, e.db, alice.ID, domain.NotificationNewRequest); n != 1 {
		t.Errorf("expected NEW_REQUEST notification, got %d", n)
	}
	if got := len(e.emails.sent()); got != 2 {
		t.Errorf("expected 2 emails, got %d", got)
	}
	logs := auditLogs(t, e.db, domain.ActionCreateRequest)
	if len(logs) != 1 || !containsAll(string(logs[0].Details), `"assignmentCount":2`) {
		t.Errorf("unexpected create audit: %+v", logs)
	}
}

func TestCreateRequest_DepartmentHeadScope(t *testing.T) {
	e := newEnv(t)
	head := testutil.CreateUser(t, e.db, "head", domain.RoleDepartmentHead, "IT")
	alice := testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")
	carol := testutil.CreateUser(t, e.db, "carol", domain.RoleEmployee, "Sales")
	ctx := context.Background()

	if _, err := e.requests.Create(ctx, principalOf(head), departmentInput("IT")); err != nil {
		t.Fatalf("own department: %v", err)
	}

	_, err := e.requests.Create(ctx, principalOf(head), departmentInput("Sales"))
	if !errors.Is(err, domain.ErrCreateForbidden) {
		t.Fatalf("expected ErrCreateForbidden for other department, got %v", err)
	}

	specific := departmentInput("")
	specific.TargetType = domain.TargetSpecific
	specific.TargetDepartment = nil
	specific.EmployeeIDs = []int64{alice.ID, carol.ID}
	_, err = e.requests.Create(ctx, principalOf(head), specific)
	if !errors.Is(err, domain.ErrCreateForbidden) {
		t.Fatalf("expected ErrCreateForbidden for foreign employee, got %v", err)
	}

	all := departmentInput("")
	all.TargetType = domain.TargetAllEmployees
	_, err = e.requests.Create(ctx, principalOf(head), all)
	if !errors.Is(err, domain.ErrCreateForbidden) {
		t.Fatalf("expected ErrCreateForbidden for all employees, got %v", err)
	}

	employee := principalOf(alice)
	_, err = e.requests.Create(ctx, employee, departmentInput("IT"))
	assertKind(t, err, domain.ErrForbidden)
}

func TestCreateRequest_Validation(t *testing.T) {
	e := newEnv(t)
	hr := testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR")
	testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")

	tests := []struct {
		name   string
		modify func(in *CreateRequestInput)
	}{
		{"blank title", func(in *CreateRequestInput) { in.Title = "  " }},
		{"past deadline", func(in *CreateRequestInput) { in.Deadline = now.AddDate(0, 0, -1) }},
		{"too many slots", func(in *CreateRequestInput) { in.Slots = []string{"a", "b", "c", "d", "e", "f"} }},
		{"blank slot", func(in *CreateRequestInput) { in.Slots = []string{"a", " "} }},
		{"negative size", func(in *CreateRequestInput) { in.MaxFileSizeMB = -1 }},
		{"unknown format", func(in *CreateRequestInput) { in.AcceptedFormats = []string{"pdf", "exe"} }},
		{"unknown format with dot", func(in *CreateRequestInput) { in.AcceptedFormats = []string{" .ABC "} }},
		{"unknown target", func(in *CreateRequestInput) { in.TargetType = "EVERYONE" }},
		{"specific without employees", func(in *CreateRequestInput) { in.TargetType = domain.TargetSpecific }},
		{"no matching employees", func(in *CreateRequestInput) { in.TargetDepartment = ptr("Finance") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := departmentInput("IT")
			tt.modify(&in)
			_, err := e.requests.Create(context.Background(), principalOf(hr), in)
			assertKind(t, err, domain.ErrValidation)
		})
	}

	var count int64
	e.db.Model(&domain.DocumentRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no requests to be stored, got %d", count)
	}
}

func TestCancelRequest(t *testing.T) {
	e := newEnv(t)
	hr := testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR")
	alice := testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")
	ctx := context.Background()

	req, err := e.requests.Create(ctx, principalOf(hr), departmentInput("IT"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = e.requests.Cancel(ctx, req.ID, principalOf(alice))
	if !errors.Is(err, domain.ErrCancelForbidden) {
		t.Fatalf("expected ErrCancelForbidden, got %v", err)
	}

	if err := e.requests.Cancel(ctx, req.ID, principalOf(hr)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if n := countNotifications(t, e.db, alice.ID, domain.NotificationRequestCancelled); n != 1 {
		t.Errorf("expected REQUEST_CANCELLED notification, got %d", n)
	}
	if n := len(auditLogs(t, e.db, domain.ActionCancelRequest)); n != 1 {
		t.Errorf("expected 1 cancel audit entry, got %d", n)
	}

	// Назначения остаются, но загрузка запрещена
	list := assignmentsOf(t, e, req.ID)
	if len(list) != 1 {
		t.Fatalf("expected assignment to remain, got %d", len(list))
	}
	_, err = e.submissions.Submit(ctx, list[0].ID, principalOf(alice), pdf("a.pdf"), nil)
	if !errors.Is(err, domain.ErrRequestClosed) {
		t.Fatalf("expected ErrRequestClosed, got %v", err)
	}

	err = e.requests.Cancel(ctx, req.ID, principalOf(hr))
	if !errors.Is(err, domain.ErrRequestNotOpen) {
		t.Fatalf("expected ErrRequestNotOpen, got %v", err)
	}
}

func TestGetRequest_Visibility(t *testing.T) {
	e := newEnv(t)
	hr := testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR")
	alice := testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")
	testutil.CreateUser(t, e.db, "bob", domain.RoleEmployee, "IT")
	carol := testutil.CreateUser(t, e.db, "carol", domain.RoleEmployee, "Sales")
	ctx := context.Background()

	req, err := e.requests.Create(ctx, principalOf(hr), departmentInput("IT"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	details, err := e.requests.Get(ctx, req.ID, principalOf(alice))
	if err != nil {
		t.Fatalf("get as assignee: %v", err)
	}
	if len(details.Assignments) != 1 || details.Assignments[0].EmployeeID != alice.ID {
		t.Errorf("expected only own assignment, got %+v", details.Assignments)
	}

	_, err = e.requests.Get(ctx, req.ID, principalOf(carol))
	assertKind(t, err, domain.ErrNotFound)
}
