// Package auth implements the single-admin session authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/tabhome/tabhome/internal/database"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWrongPassword is returned by UpdatePassword when the old password does not match.
	ErrWrongPassword = errors.New("old password does not match")
	// ErrInvalidPassword is returned when a new password is empty or longer than bcrypt accepts.
	ErrInvalidPassword = errors.New("invalid new password")
	// ErrUnauthenticated is returned when the session carries no valid user.
	ErrUnauthenticated = errors.New("not authenticated")
)

// dummyHash is compared against when the username is unknown, so both paths cost one bcrypt run.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("tabhome-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// Authenticator checks credentials against the user table.
type Authenticator struct {
	db database.DB

	// store and sessionName are used by Login to issue a fresh session.
	store       sessions.Store
	sessionName string
}

func New(db database.DB, store sessions.Store, sessionName string) *Authenticator {
	return &Authenticator{
		db:          db,
		store:       store,
		sessionName: sessionName,
	}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidPassword)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %w", ErrInvalidPassword, err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Authenticate returns the user matching username and password.
// Any mismatch yields ErrInvalidCredentials without telling which part was wrong.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	user, err := a.db.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdatePassword replaces the password of userID after verifying oldPassword.
func (a *Authenticator) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := a.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := a.db.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	log.Info("password changed", "user", user.Username)
	return nil
}

// EnsureAdmin creates the admin account unless a user with that name already exists.
// An existing account keeps its current password.
func EnsureAdmin(ctx context.Context, db database.DB, username, password string) error {
	_, err := db.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := db.CreateUser(ctx, username, hash); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Info("created admin user", "username", username)
	return nil
}
