package domain

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 255
)

// User is a staff account able to log in to the dashboard.
type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// NewUser creates a user with a bcrypt-hashed password.
func NewUser(fullName, email, password string) (*User, error) {
	if fullName == "" {
		return nil, apperrors.ErrFullNameRequired
	}
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if len(email) > MaxEmailLength {
		return nil, apperrors.ErrEmailInvalid
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.ErrEmailInvalid
	}
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return nil, apperrors.ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:             uuid.New(),
		FullName:       fullName,
		Email:          email,
		HashedPassword: string(hash),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// CheckPassword compares a candidate password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}
