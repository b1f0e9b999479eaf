package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// Credentials is the only component that sees secret hashes. Everything it
// returns is a model.Identity.
type Credentials struct {
	users   model.UserStore
	hasher  model.PasswordHasher
	timeout time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

func NewCredentials(users model.UserStore, hasher model.PasswordHasher, timeout time.Duration, logger *logger.Logger) *Credentials {
	return &Credentials{
		users:   users,
		hasher:  hasher,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// FindByEmail returns model.ErrNotFound for an unknown email.
func (c *Credentials) FindByEmail(ctx context.Context, email string) (model.Identity, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrNotFound
	}
	if err != nil {
		return model.Identity{}, storageFailure(err)
	}

	return user.Identity(), nil
}

// FindByID returns model.ErrNotFound for an unknown id.
func (c *Credentials) FindByID(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.users.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrNotFound
	}
	if err != nil {
		return model.Identity{}, storageFailure(err)
	}

	return user.Identity(), nil
}

// VerifySecret reports whether secret belongs to the user with email. An unknown
// email and a wrong secret both yield false, and both pay for one hash comparison.
func (c *Credentials) VerifySecret(ctx context.Context, email, secret string) (model.Identity, bool, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, model.ErrNotFound) {
		c.hasher.VerifyDummy(secret)
		return model.Identity{}, false, nil
	}
	if err != nil {
		return model.Identity{}, false, storageFailure(err)
	}

	if err := c.hasher.Verify(user.PasswordHash, secret); err != nil {
		c.logger.Debug("Credentials: secret verification failed",
			"user_id", user.ID,
			"error", err.Error())
		return model.Identity{}, false, nil
	}

	return user.Identity(), true, nil
}

// Create hashes secret and stores a new active user with the default role.
func (c *Credentials) Create(ctx context.Context, name, email, secret string) (model.Identity, error) {
	email = model.NormalizeEmail(email)

	hash, err := c.hasher.Hash(secret)
	if err != nil {
		return model.Identity{}, apierrors.NewErrInternalServerError(fmt.Errorf("failed to hash secret: %w", err))
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	now := c.now().UTC()
	user, err := c.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrConflict) {
		return model.Identity{}, apierrors.NewErrEmailIsTaken(email)
	}
	if err != nil {
		return model.Identity{}, storageFailure(err)
	}

	return user.Identity(), nil
}

func (c *Credentials) SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Identity, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.users.SetActive(ctx, id, active)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.Identity{}, storageFailure(err)
	}

	return user.Identity(), nil
}

// Update stores a partial change to a user. A new email is normalised first
// and must not belong to anyone else.
func (c *Credentials) Update(ctx context.Context, id uuid.UUID, update model.UserUpdate) (model.Identity, error) {
	if update.Email != nil {
		email := model.NormalizeEmail(*update.Email)
		update.Email = &email
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.users.Update(ctx, id, update)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, apierrors.NewErrUserNotFound()
	}
	if errors.Is(err, model.ErrConflict) && update.Email != nil {
		return model.Identity{}, apierrors.NewErrEmailIsTaken(*update.Email)
	}
	if err != nil {
		return model.Identity{}, storageFailure(err)
	}

	return user.Identity(), nil
}
