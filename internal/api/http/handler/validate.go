package handler

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/model"
)

const (
	minNameLength     = 2
	maxNameLength     = 50
	minPasswordLength = 6
	maxPasswordLength = 128
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if n := utf8.RuneCountInString(r.Name); n < minNameLength || n > maxNameLength {
		return apierrors.NewErrBadRequest("name must be between 2 and 50 characters")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(r.Password); n < minPasswordLength || n > maxPasswordLength {
		return apierrors.NewErrBadRequest("password must be between 6 and 128 characters")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return apierrors.NewErrBadRequest("password is required")
	}
	return nil
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *refreshTokenRequest) validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return apierrors.NewErrBadRequest("refresh token is required")
	}
	return nil
}

type setStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (r *setStatusRequest) validate() error {
	if r.IsActive == nil {
		return apierrors.NewErrBadRequest("isActive is required")
	}
	return nil
}

// updateUserRequest is an admin change to a user. Absent fields stay as they are.
type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (r *updateUserRequest) validate() error {
	if r.Name == nil && r.Email == nil && r.Role == nil && r.IsActive == nil {
		return apierrors.NewErrBadRequest("at least one field must be provided")
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
			return apierrors.NewErrBadRequest("name must be between 2 and 50 characters")
		}
		r.Name = &name
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Role != nil && !model.Role(*r.Role).Valid() {
		return apierrors.NewErrBadRequest("role must be either user or admin")
	}
	return nil
}

func (r *updateUserRequest) update() model.UserUpdate {
	u := model.UserUpdate{
		Name:     r.Name,
		Email:    r.Email,
		IsActive: r.IsActive,
	}
	if r.Role != nil {
		role := model.Role(*r.Role)
		u.Role = &role
	}
	return u
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apierrors.NewErrBadRequest("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierrors.NewErrBadRequest("email is invalid")
	}
	return nil
}
