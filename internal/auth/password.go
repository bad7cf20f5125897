package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/familyalbum/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already registered")
)

// UserStorage defines the user lookups and writes the authenticator needs.
// This allows the authenticator to be independent of where users are cached.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	// FindUsersByUsername returns every user with username. Uniqueness is
	// checked at registration only, so there may be more than one.
	FindUsersByUsername(ctx context.Context, username string) ([]*models.User, error)
}

// Registration carries the fields of the sign-up form.
type Registration struct {
	Username        string
	ProfileName     string
	ProfilePicture  string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	now     func() time.Time
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		now:     time.Now,
	}
}

// ValidateCredential checks that a password was provided.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Register creates a new user with a hashed password.
// Validation happens before any write: missing fields, mismatched
// confirmation and duplicate usernames are rejected.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if reg.Username == "" {
		return nil, ErrMissingCredentials
	}
	if err := a.ValidateCredential(reg.Password); err != nil {
		return nil, err
	}
	if reg.Password != reg.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	existing, err := a.storage.FindUsersByUsername(ctx, reg.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrUsernameTaken
	}

	hashed, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	picture := reg.ProfilePicture
	if picture == "" {
		picture = models.DefaultPicture
	}

	user := &models.User{
		Username:       reg.Username,
		ProfileName:    reg.ProfileName,
		ProfilePicture: picture,
		PhoneNumber:    reg.PhoneNumber,
		Password:       hashed,
		CreatedAt:      a.now().UTC().Format(time.RFC3339),
	}
	if err := a.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the first user whose username and password both match.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	users, err := a.storage.FindUsersByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	for _, user := range users {
		if CheckPassword(user.Password, credential) {
			return user, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// HashPassword returns the bcrypt hash stored in User.Password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a candidate password with a stored value.
// Stored values that are not bcrypt hashes are compared as plain text.
func CheckPassword(stored, candidate string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
