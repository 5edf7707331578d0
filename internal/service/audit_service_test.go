package service

import (
	"context"
	"errors"
	"testing"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/testutil"
)

func TestAuditService_ListRecent(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.db, "admin", domain.RoleAdmin, "")
	hr := testutil.CreateUser(t, e.db, "hr", domain.RoleHR, "HR")
	ctx := context.Background()

	seed := []domain.AuditLog{
		{Action: domain.ActionCreateRequest},
		{Action: domain.ActionMarkOverdue},
		{Action: domain.ActionMarkOverdue},
	}
	if err := e.db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := e.auditLog.ListRecent(ctx, principalOf(hr), nil, 0); !errors.Is(err, domain.ErrAdminOnly) {
		t.Fatalf("expected ErrAdminOnly for HR, got %v", err)
	}

	all, err := e.auditLog.ListRecent(ctx, principalOf(admin), nil, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}

	action := domain.ActionMarkOverdue
	filtered, err := e.auditLog.ListRecent(ctx, principalOf(admin), &action, 1)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Action != domain.ActionMarkOverdue {
		t.Errorf("expected one MARK_OVERDUE entry, got %+v", filtered)
	}
}
