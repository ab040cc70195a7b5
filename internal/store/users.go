package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser inserts the user and its profile row in one transaction.
// Profile creation is an explicit workflow step here, not a side effect
// hanging off a save hook.
func CreateUser(ctx context.Context, db *sql.DB, email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, username, password_hash, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING id, email, username, created_at, updated_at`,
			email, username, hash).Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, "users_email_key") ||
				database.IsUniqueViolation(err, "users_username_key") {
				return database.ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		profile := &models.Profile{}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO profiles (user_id, bio, coins, is_subscribed, created_at)
			 VALUES ($1, '', 0, TRUE, NOW())
			 RETURNING id, user_id, bio, coins, is_subscribed, created_at`,
			user.ID).Scan(
			&profile.ID,
			&profile.UserID,
			&profile.Bio,
			&profile.Coins,
			&profile.IsSubscribed,
			&profile.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{Profile: &models.Profile{}}

	query := `
		SELECT u.id, u.email, u.username, u.created_at, u.updated_at,
		       p.id, p.user_id, p.bio, p.coins, p.is_subscribed, p.created_at
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Profile.ID,
		&user.Profile.UserID,
		&user.Profile.Bio,
		&user.Profile.Coins,
		&user.Profile.IsSubscribed,
		&user.Profile.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the password for the given email and returns the
// user on success. Both unknown email and bad password come back as
// ErrInvalidCredentials so the two cases are indistinguishable to callers.
func Authenticate(ctx context.Context, db *sql.DB, email, password string) (*models.User, error) {
	user := &models.User{}
	var hash []byte

	err := db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`,
		email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&hash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, database.ErrInvalidCredentials
	}

	return user, nil
}

type UpdateProfileRequest struct {
	Bio          *string
	IsSubscribed *bool
}

func UpdateProfile(ctx context.Context, db *sql.DB, userID int64, req UpdateProfileRequest) (*models.Profile, error) {
	profile := &models.Profile{}

	err := db.QueryRowContext(ctx,
		`UPDATE profiles
		 SET bio = COALESCE($2, bio),
		     is_subscribed = COALESCE($3, is_subscribed)
		 WHERE user_id = $1
		 RETURNING id, user_id, bio, coins, is_subscribed, created_at`,
		userID, req.Bio, req.IsSubscribed).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Bio,
		&profile.Coins,
		&profile.IsSubscribed,
		&profile.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}
