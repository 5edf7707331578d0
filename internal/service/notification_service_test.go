package service

import (
	"context"
	"errors"
	"testing"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/testutil"
)

func TestNotificationInbox(t *testing.T) {
	e := newEnv(t)
	alice := testutil.CreateUser(t, e.db, "alice", domain.RoleEmployee, "IT")
	bob := testutil.CreateUser(t, e.db, "bob", domain.RoleEmployee, "IT")
	ctx := context.Background()

	seed := []domain.Notification{
		{UserID: alice.ID, Type: domain.NotificationNewRequest, Title: "first", Message: "m"},
		{UserID: alice.ID, Type: domain.NotificationReminder, Title: "second", Message: "m"},
		{UserID: bob.ID, Type: domain.NotificationReminder, Title: "other", Message: "m"},
	}
	if err := e.db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := e.inbox.List(ctx, principalOf(alice), false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}

	err = e.inbox.MarkRead(ctx, principalOf(alice), seed[2].ID)
	if !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for foreign notification, got %v", err)
	}

	if err := e.inbox.MarkRead(ctx, principalOf(alice), seed[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := e.inbox.List(ctx, principalOf(alice), true, 0)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != seed[1].ID {
		t.Errorf("expected only the second notification unread, got %+v", unread)
	}

	n, err := e.inbox.MarkAllRead(ctx, principalOf(alice))
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 notification marked, got %d", n)
	}

	var bobsNote domain.Notification
	e.db.First(&bobsNote, seed[2].ID)
	if bobsNote.IsRead {
		t.Error("other user's notification must stay unread")
	}
}
