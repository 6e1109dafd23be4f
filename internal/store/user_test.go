package store

import "testing"

func TestUserCreate(t *testing.T) {
	s := NewUserStore(setupTestDB(t))

	u, err := s.Create("clerk_1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected generated user id")
	}
	if u.ExternalID != "clerk_1" {
		t.Errorf("external id = %q, want %q", u.ExternalID, "clerk_1")
	}
	if u.Name == nil || *u.Name != "Alice" {
		t.Errorf("name = %v, want Alice", u.Name)
	}
}

func TestUserCreateWithoutName(t *testing.T) {
	s := NewUserStore(setupTestDB(t))

	u, err := s.Create("clerk_1", "alice@example.com", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Name != nil {
		t.Errorf("name = %v, want nil", u.Name)
	}
}

func TestUserGetByExternalIDNotFound(t *testing.T) {
	s := NewUserStore(setupTestDB(t))

	u, err := s.GetByExternalID("clerk_unknown")
	if err != nil {
		t.Fatalf("get by external id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown external id")
	}
}

func TestUserEnsureExists(t *testing.T) {
	s := NewUserStore(setupTestDB(t))

	first, err := s.EnsureExists("clerk_1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := s.EnsureExists("clerk_1", "other@example.com", "Other")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("id = %q, want existing %q", second.ID, first.ID)
	}
	if second.Email != "alice@example.com" {
		t.Errorf("email = %q, want original %q", second.Email, "alice@example.com")
	}
}

func TestUserDuplicateExternalID(t *testing.T) {
	s := NewUserStore(setupTestDB(t))

	if _, err := s.Create("clerk_1", "alice@example.com", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Create("clerk_1", "bob@example.com", ""); err == nil {
		t.Error("expected error for duplicate external id")
	}
}
