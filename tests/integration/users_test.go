package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/store"
)

func TestCreateUserCreatesProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, db, "jina@example.com", "jina", "s3cret-pass")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	if user.Profile == nil {
		t.Fatal("Profile should be created with the user")
	}
	if !user.Profile.IsSubscribed || user.Profile.Coins != 0 {
		t.Errorf("Unexpected profile defaults: %+v", user.Profile)
	}

	got, err := store.GetUser(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get user: %v", err)
	}
	if got.Profile.UserID != user.ID {
		t.Errorf("Profile not linked to user: %+v", got.Profile)
	}

	// Duplicate email: rejected, and no orphan profile row may survive the
	// rolled back transaction.
	if _, err := store.CreateUser(ctx, db, "jina@example.com", "jina2", "s3cret-pass"); !errors.Is(err, database.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got: %v", err)
	}

	var profiles int
	if err := db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&profiles); err != nil {
		t.Fatalf("Count profiles: %v", err)
	}
	if profiles != 1 {
		t.Errorf("Expected 1 profile, got %d", profiles)
	}
}

func TestAuthenticate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateUser(ctx, db, "login@example.com", "login", "correct-horse")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	user, err := store.Authenticate(ctx, db, "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("Expected user %d, got %d", created.ID, user.ID)
	}

	if _, err := store.Authenticate(ctx, db, "login@example.com", "wrong"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
	if _, err := store.Authenticate(ctx, db, "nobody@example.com", "whatever"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "profile@example.com")

	bio := "Nyama choma enthusiast"
	unsub := false
	profile, err := store.UpdateProfile(ctx, db, user.ID, store.UpdateProfileRequest{
		Bio:          &bio,
		IsSubscribed: &unsub,
	})
	if err != nil {
		t.Fatalf("Update profile: %v", err)
	}
	if profile.Bio != bio || profile.IsSubscribed {
		t.Errorf("Profile not updated: %+v", profile)
	}

	// Partial update leaves other fields alone.
	profile, err = store.UpdateProfile(ctx, db, user.ID, store.UpdateProfileRequest{})
	if err != nil {
		t.Fatalf("Empty update: %v", err)
	}
	if profile.Bio != bio {
		t.Errorf("Bio lost on partial update: %q", profile.Bio)
	}
}
