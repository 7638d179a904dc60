package models

import (
	"strings"
	"time"

	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
)

// User is an employee account. PasswordHash is a bcrypt hash; the clear
// password never leaves the service layer.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser validates and constructs a user. Emails are stored lowercased;
// uniqueness is the store's concern.
func NewUser(userID id.UserID, email, firstName, lastName, passwordHash string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	return &User{
		ID:           userID,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName returns the display name used in notifications.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
