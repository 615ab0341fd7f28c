package model

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	PasswordHashed    string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Bio               *string   `db:"bio" json:"bio"`
	ProfilePictureURL *string   `db:"profile_picture_url" json:"profile_picture"`
	Facebook          *string   `db:"facebook" json:"facebook,omitempty"`
	Twitter           *string   `db:"twitter" json:"twitter,omitempty"`
	Instagram         *string   `db:"instagram" json:"instagram,omitempty"`
	LinkedIn          *string   `db:"linkedin" json:"linkedin,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterRequest represents the data needed to register a new user.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the fresh token alongside basic account info.
type LoginResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int    `json:"expires_in"`
}

// UpdateProfileRequest carries a partial profile update. Every field is
// optional; omitted fields are left untouched.
//
// A field sent as an empty string is also treated as "not provided". That
// means an existing bio cannot be cleared through this endpoint - a known
// gap carried over from the original behavior, kept until the product
// decides on explicit-null semantics.
type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
	Facebook       *string `json:"facebook"`
	Twitter        *string `json:"twitter"`
	Instagram      *string `json:"instagram"`
	LinkedIn       *string `json:"linkedin"`
}

// Validation bounds for registration.
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPasswordLength = 6
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when the normalized email is already registered
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password, deliberately indistinguishable
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrNameLength       = errors.New("name must be between 2 and 50 characters")
	ErrInvalidEmail     = errors.New("valid email is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)
