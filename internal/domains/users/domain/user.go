package domain

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrInvalidEmail  = errors.New("email must contain '@'")
	ErrWeakPassword  = errors.New("password must be at least 4 characters")
)

// User is a shop account. Email is optional until the first confirmed order
// stamps one on.
type User struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
}

// NewUser builds a user with a hashed password, ensuring required invariants.
func NewUser(username, password string) (*User, error) {
	user := &User{}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUsername trims and validates the username.
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

// SetPassword validates basic password strength and stores a bcrypt hash.
func (u *User) SetPassword(password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < 4 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// SetEmail validates and applies an email address.
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	u.Email = email
	return nil
}

// CheckPassword compares the stored hash with the supplied credentials.
func (u *User) CheckPassword(password string) bool {
	password = strings.TrimSpace(password)
	if password == "" || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if err := u.SetUsername(u.Username); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return u.SetEmail(u.Email)
}
