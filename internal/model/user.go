package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role enumerates the access levels a user can hold.
type Role string

const (
	// RoleUser is the default role assigned on registration.
	RoleUser Role = "user"
	// RoleAdmin grants access to user administration.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (User, error)
	// Update applies the non-nil fields of update. It returns ErrNotFound for an
	// unknown id and ErrConflict when the new email belongs to another user.
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (User, error)
	Ping(ctx context.Context) error
}

// User represents a stored user together with its secret hash.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate is a partial change to a user. Nil fields are left as they are.
type UserUpdate struct {
	Name     *string
	Email    *string
	Role     *Role
	IsActive *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.IsActive == nil
}

// Identity returns the user without its secret material.
func (u User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Identity is the public view of a user. It is what leaves the credential store.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordHasher hashes and verifies user secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	// Verify returns nil only when secret matches hash.
	Verify(hash, secret string) error
	// VerifyDummy does the work of a failed Verify without a real hash.
	VerifyDummy(secret string)
}
