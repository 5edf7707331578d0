package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/testutil"
)

func TestReview_ApproveLocksAssignment(t *testing.T) {
	f := newSubmissionFixture(t, domain.AssignmentPending)
	ctx := context.Background()

	if _, err := f.env.submissions.Submit(ctx, f.assignment.ID, principalOf(f.employee), pdf("a.pdf"), nil); err != nil {
		t.Fatalf("upload: %v", err)
	}

	a, err := f.env.reviews.Review(ctx, f.assignment.ID, principalOf(f.hr), domain.AssignmentApproved, nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if a.Status != domain.AssignmentApproved {
		t.Errorf("expected APPROVED, got %s", a.Status)
	}

	stored := testutil.ReloadAssignment(t, f.env.db, f.assignment.ID)
	if stored.Status != domain.AssignmentApproved {
		t.Errorf("expected stored APPROVED, got %s", stored.Status)
	}
	if stored.ReviewedAt == nil || stored.ReviewedByID == nil || *stored.ReviewedByID != f.hr.ID {
		t.Errorf("expected review metadata, got reviewedAt=%v reviewedBy=%v", stored.ReviewedAt, stored.ReviewedByID)
	}
	if stored.ReviewNote != nil {
		t.Errorf("expected no note, got %q", *stored.ReviewNote)
	}

	_, err = f.env.submissions.Submit(ctx, f.assignment.ID, principalOf(f.employee), pdf("b.pdf"), nil)
	if !errors.Is(err, domain.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
	assertKind(t, err, domain.ErrInvalidState)

	// Одобренное назначение нельзя проверить повторно
	_, err = f.env.reviews.Review(ctx, f.assignment.ID, principalOf(f.hr), domain.AssignmentRejected, ptr("changed my mind"))
	if !errors.Is(err, domain.ErrNotSubmitted) {
		t.Fatalf("expected ErrNotSubmitted, got %v", err)
	}

	if n := countNotifications(t, f.env.db, f.employee.ID, domain.NotificationApproved); n != 1 {
		t.Errorf("expected 1 APPROVED notification, got %d", n)
	}
	if n := len(auditLogs(t, f.env.db, domain.ActionApproveDocument)); n != 1 {
		t.Errorf("expected 1 approve audit entry, got %d", n)
	}
}

func TestReview_RejectRequiresReason(t *testing.T) {
	f := newSubmissionFixture(t, domain.AssignmentSubmitted)
	ctx := context.Background()

	for _, note := range []*string{nil, ptr(""), ptr("   ")} {
		_, err := f.env.reviews.Review(ctx, f.assignment.ID, principalOf(f.hr), domain.AssignmentRejected, note)
		if !errors.Is(err, domain.ErrRejectionReasonRequired) {
			t.Fatalf("expected ErrRejectionReasonRequired, got %v", err)
		}
		if err.Error() != "Rejection reason is required" {
			t.Errorf("unexpected message %q", err.Error())
		}
	}

	if got := testutil.ReloadAssignment(t, f.env.db, f.assignment.ID).Status; got != domain.AssignmentSubmitted {
		t.Errorf("expected SUBMITTED, got %s", got)
	}
}

func TestReview_RejectNotifiesWithReason(t *testing.T) {
	f := newSubmissionFixture(t, domain.AssignmentSubmitted)

	a, err := f.env.reviews.Review(context.Background(), f.assignment.ID, principalOf(f.hr), domain.AssignmentRejected, ptr("  Wrong document  "))
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if a.ReviewNote == nil || *a.ReviewNote != "Wrong document" {
		t.Errorf("expected trimmed note, got %v", a.ReviewNote)
	}

	var n domain.Notification
	if err := f.env.db.Where("user_id = ? AND type = ?", f.employee.ID, domain.NotificationRejected).First(&n).Error; err != nil {
		t.Fatalf("expected rejection notification: %v", err)
	}
	if !strings.Contains(n.Message, "Reason: Wrong document") {
		t.Errorf("expected reason in message, got %q", n.Message)
	}

	logs := auditLogs(t, f.env.db, domain.ActionRejectDocument)
	if len(logs) != 1 || !containsAll(string(logs[0].Details), `"employeeName":"alice"`, `"note":"Wrong document"`) {
		t.Errorf("unexpected reject audit: %+v", logs)
	}
}

func TestReview_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.AssignmentStatus
		role     domain.Role
		decision domain.AssignmentStatus
		wantErr  error
	}{
		{"employee cannot review", domain.AssignmentSubmitted, domain.RoleEmployee, domain.AssignmentApproved, domain.ErrReviewForbidden},
		{"department head cannot review", domain.AssignmentSubmitted, domain.RoleDepartmentHead, domain.AssignmentApproved, domain.ErrReviewForbidden},
		{"pending cannot be reviewed", domain.AssignmentPending, domain.RoleAdmin, domain.AssignmentApproved, domain.ErrNotSubmitted},
		{"overdue cannot be reviewed", domain.AssignmentOverdue, domain.RoleHR, domain.AssignmentApproved, domain.ErrNotSubmitted},
		{"unknown decision", domain.AssignmentSubmitted, domain.RoleHR, domain.AssignmentPending, domain.ErrInvalidDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(t, tt.status)
			reviewer := testutil.CreateUser(t, f.env.db, "reviewer", tt.role, "IT")

			_, err := f.env.reviews.Review(context.Background(), f.assignment.ID, principalOf(reviewer), tt.decision, ptr("note"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := testutil.ReloadAssignment(t, f.env.db, f.assignment.ID).Status; got != tt.status {
				t.Errorf("status changed to %s", got)
			}
		})
	}
}
