package store_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/botorabi/Meet4Eat-sub002/internal/store"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

func TestFindUser(t *testing.T) {
	m := store.NewMemory()
	m.PutUser(types.User{ID: "u1", Name: "Alice", Active: true})

	u, err := m.FindUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if u.Name != "Alice" || !u.Active {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := m.FindUser(context.Background(), "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetMembers(t *testing.T) {
	m := store.NewMemory()
	m.PutEvent("e1", "a", "b")

	members, err := m.GetMembers(context.Background(), "e1")
	if err != nil {
		t.Fatalf("get members failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if _, err := m.GetMembers(context.Background(), "nope"); !errors.Is(err, store.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	m := store.NewMemory()
	m.PutUser(types.User{ID: "u1", Name: "Alice", Active: true})
	token := m.IssueToken("u1")

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	u, err := m.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if u.ID != "u1" {
		t.Fatalf("wrong identity: %+v", u)
	}

	r = httptest.NewRequest("GET", "/ws?token="+token, nil)
	if _, err := m.Authenticate(context.Background(), r); err != nil {
		t.Fatalf("query token authenticate failed: %v", err)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	if _, err := m.Authenticate(context.Background(), r); !errors.Is(err, store.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer bogus")
	if _, err := m.Authenticate(context.Background(), r); !errors.Is(err, store.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for bad token, got %v", err)
	}
}
