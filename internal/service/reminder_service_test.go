package service

import (
	"context"
	"errors"
	"testing"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/testutil"
)

type reminderFixture struct {
	env      *env
	admin    *domain.User
	hr       *domain.User
	alice    *domain.User
	bob      *domain.User
	carol    *domain.User
	passport *domain.DocumentRequest
	diploma  *domain.DocumentRequest
}

// newReminderFixture: три сотрудника в двух запросах
func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	e := newEnv(t)
	f := &reminderFixture{
		env:   e,
		admin: testutil.CreateUser(t, e.db, "admin", domain.RoleAdmin, "Management"),
		hr:    testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR"),
		alice: testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT"),
		bob:   testutil.CreateUser(t, e.db, "bob", domain.RoleEmployee, "IT"),
		carol: testutil.CreateUser(t, e.db, "carol", domain.RoleEmployee, "Sales"),
	}
	due := testutil.Date(2026, 11, 1)
	f.passport = testutil.CreateRequest(t, e.db, "Passport copy", f.hr.ID, due)
	f.diploma = testutil.CreateRequest(t, e.db, "Diploma", f.hr.ID, due)
	testutil.CreateAssignment(t, e.db, f.passport.ID, f.alice.ID, due, domain.AssignmentPending)
	testutil.CreateAssignment(t, e.db, f.passport.ID, f.bob.ID, due, domain.AssignmentOverdue)
	testutil.CreateAssignment(t, e.db, f.diploma.ID, f.carol.ID, due, domain.AssignmentPending)
	return f
}

func reminderCounts(t *testing.T, f *reminderFixture) map[int64]int {
	t.Helper()
	var list []domain.RequestAssignment
	if err := f.env.db.Find(&list).Error; err != nil {
		t.Fatalf("query assignments: %v", err)
	}
	counts := make(map[int64]int, len(list))
	for _, a := range list {
		counts[a.EmployeeID] = a.ReminderCount
		if a.ReminderCount > 0 && (a.LastReminderAt == nil || !a.LastReminderAt.Equal(now)) {
			t.Errorf("assignment %d: expected last reminder at %v, got %v", a.ID, now, a.LastReminderAt)
		}
	}
	return counts
}

func TestSendReminders_GroupsEmailsByRequest(t *testing.T) {
	f := newReminderFixture(t)

	result, err := f.env.reminders.SendReminders(context.Background(), principalOf(f.admin), ReminderSelection{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AssignmentCount != 3 || result.RequestCount != 2 || result.EmailsQueued != 2 {
		t.Errorf("unexpected result %+v", result)
	}

	emails := f.env.emails.sent()
	if len(emails) != 2 {
		t.Fatalf("expected 2 grouped emails, got %d", len(emails))
	}
	if len(emails[0].To) != 2 || len(emails[1].To) != 1 {
		t.Errorf("unexpected recipients %v / %v", emails[0].To, emails[1].To)
	}

	counts := reminderCounts(t, f)
	for _, u := range []*domain.User{f.alice, f.bob, f.carol} {
		if counts[u.ID] != 1 {
			t.Errorf("%s: expected reminder count 1, got %d", u.Name, counts[u.ID])
		}
		if n := countNotifications(t, f.env.db, u.ID, domain.NotificationReminder); n != 1 {
			t.Errorf("%s: expected 1 REMINDER notification, got %d", u.Name, n)
		}
	}

	logs := auditLogs(t, f.env.db, domain.ActionSendReminders)
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	if !containsAll(string(logs[0].Details), `"assignmentCount":3`, `"requestCount":2`) {
		t.Errorf("unexpected audit details: %s", logs[0].Details)
	}
}

func TestSendReminders_Filters(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	result, err := f.env.reminders.SendReminders(ctx, principalOf(f.hr), ReminderSelection{
		RequestID: &f.passport.ID,
		Statuses:  []domain.AssignmentStatus{domain.AssignmentOverdue},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AssignmentCount != 1 {
		t.Errorf("expected only bob, got %+v", result)
	}
	counts := reminderCounts(t, f)
	if counts[f.bob.ID] != 1 || counts[f.alice.ID] != 0 || counts[f.carol.ID] != 0 {
		t.Errorf("unexpected reminder counts %v", counts)
	}

	_, err = f.env.reminders.SendReminders(ctx, principalOf(f.admin), ReminderSelection{
		Statuses: []domain.AssignmentStatus{domain.AssignmentApproved},
	})
	assertKind(t, err, domain.ErrValidation)
}

func TestSendReminders_Scope(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	// HR видит только свои запросы
	otherHR := testutil.CreateUser(t, f.env.db, "hr2", domain.RoleHR, "HR")
	_, err := f.env.reminders.SendReminders(ctx, principalOf(otherHR), ReminderSelection{})
	if !errors.Is(err, domain.ErrNoReminderTargets) {
		t.Fatalf("expected ErrNoReminderTargets, got %v", err)
	}

	head := testutil.CreateUser(t, f.env.db, "head", domain.RoleDepartmentHead, "Sales")
	result, err := f.env.reminders.SendReminders(ctx, principalOf(head), ReminderSelection{})
	if err != nil {
		t.Fatalf("department head: %v", err)
	}
	if result.AssignmentCount != 1 || result.RequestCount != 1 {
		t.Errorf("expected only carol, got %+v", result)
	}

	_, err = f.env.reminders.SendReminders(ctx, principalOf(f.alice), ReminderSelection{})
	if !errors.Is(err, domain.ErrReminderForbidden) {
		t.Fatalf("expected ErrReminderForbidden, got %v", err)
	}
}

func TestSendReminders_SkipsClosedAndSubmitted(t *testing.T) {
	f := newReminderFixture(t)
	f.env.db.Model(f.diploma).Update("status", domain.RequestClosed)
	f.env.db.Model(&domain.RequestAssignment{}).Where("employee_id = ?", f.alice.ID).Update("status", domain.AssignmentSubmitted)

	result, err := f.env.reminders.SendReminders(context.Background(), principalOf(f.admin), ReminderSelection{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AssignmentCount != 1 {
		t.Errorf("expected only bob, got %+v", result)
	}
}
