package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
	"github.com/vladislavdragonenkov/gramseva/internal/storage/memory"
)

func newUser() domain.User {
	return domain.User{
		ID:           "user-1",
		Name:         "Asha Patel",
		Email:        "asha@example.com",
		PasswordHash: "salt$hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserRepository_CreateGet(t *testing.T) {
	repo := memory.NewUserRepository()
	user := newUser()

	if err := repo.Create(user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Email != user.Email {
		t.Fatalf("expected email %s, got %s", user.Email, stored.Email)
	}
}

func TestUserRepository_GetByEmailCaseInsensitive(t *testing.T) {
	repo := memory.NewUserRepository()
	if err := repo.Create(newUser()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByEmail("ASHA@example.com")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if stored.ID != "user-1" {
		t.Fatalf("expected user-1, got %s", stored.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	if err := repo.Create(newUser()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	dup := newUser()
	dup.ID = "user-2"
	if err := repo.Create(dup); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := memory.NewUserRepository()

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail("missing@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
