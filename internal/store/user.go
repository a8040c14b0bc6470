package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/talentline/apiserver/types"
)

const userColumns = `id, email, hashed_password, full_name, role, is_active, firebase_uid,
		google_id, profile_picture, auth_provider, email_verified, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByExternalIDOrEmail returns the user linked to externalID, or failing
// that the user registered under email.
func (r *UserRepository) FindByExternalIDOrEmail(ctx context.Context, externalID, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE firebase_uid = $1 OR email = $2
		ORDER BY CASE WHEN firebase_uid = $1 THEN 0 ELSE 1 END
		LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, externalID, email))
}

// Insert writes a new user. The caller assigns the ID.
func (r *UserRepository) Insert(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (id, email, hashed_password, full_name, role, is_active, firebase_uid,
			google_id, profile_picture, auth_provider, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		nullString(user.PasswordHash),
		user.FullName,
		user.Role,
		user.IsActive,
		nullString(user.FirebaseUID),
		nullString(user.GoogleID),
		nullString(user.ProfilePicture),
		user.AuthProvider,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, mapWriteError(err)
	}
	return user, nil
}

// Save overwrites every mutable column of an existing user.
func (r *UserRepository) Save(ctx context.Context, user types.User) error {
	user.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE users
		SET email = $1,
			hashed_password = $2,
			full_name = $3,
			role = $4,
			is_active = $5,
			firebase_uid = $6,
			google_id = $7,
			profile_picture = $8,
			auth_provider = $9,
			email_verified = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		nullString(user.PasswordHash),
		user.FullName,
		user.Role,
		user.IsActive,
		nullString(user.FirebaseUID),
		nullString(user.GoogleID),
		nullString(user.ProfilePicture),
		user.AuthProvider,
		user.EmailVerified,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (types.User, error) {
	var (
		user                                  types.User
		password, uid, googleID, profilePhoto sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&password,
		&user.FullName,
		&user.Role,
		&user.IsActive,
		&uid,
		&googleID,
		&profilePhoto,
		&user.AuthProvider,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, mapReadError(err)
	}
	user.PasswordHash = password.String
	user.FirebaseUID = uid.String
	user.GoogleID = googleID.String
	user.ProfilePicture = profilePhoto.String
	return user, nil
}
