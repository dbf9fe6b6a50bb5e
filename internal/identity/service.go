package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dugnadhub-api/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong
	// passwords; callers get no hint which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signing up with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound is returned when a token references a deleted user.
	ErrUserNotFound = errors.New("user not found")
)

// User is the safe representation of the signed-in account handed to
// the rest of the application.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Provider supplies the current authenticated user and notifies
// subscribers about session changes. The registry layer only ever sees
// the user id it hands to join/leave/like/unlike/comment calls.
type Provider interface {
	CurrentUser(ctx context.Context, token string) (User, error)
	OnSessionChange(fn func(user User, signedIn bool))
}

// Service implements Provider on top of a gorm users table, bcrypt
// password hashes and JWT session tokens.
type Service struct {
	db     *gorm.DB
	tokens *Tokens

	mu        sync.Mutex
	listeners []func(User, bool)
}

// NewService migrates the users table and wires the token issuer.
func NewService(db *gorm.DB, tokens *Tokens) (*Service, error) {
	if db == nil {
		return nil, errors.New("identity: nil db")
	}
	if tokens == nil {
		return nil, errors.New("identity: nil token issuer")
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("migrate users table: %w", err)
	}
	return &Service{db: db, tokens: tokens}, nil
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	record := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Password:    string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, "", ErrEmailTaken
		}
		// glebarez/sqlite reports unique violations as plain errors;
		// check whether the email already exists before giving up.
		var existing models.User
		if lookupErr := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; lookupErr == nil {
			return User{}, "", ErrEmailTaken
		}
		return User{}, "", fmt.Errorf("create user: %w", err)
	}

	user := toUser(record)
	token, err := s.tokens.Generate(user.ID, user.DisplayName)
	if err != nil {
		return User{}, "", fmt.Errorf("generate token: %w", err)
	}
	s.notify(user, true)
	return user, token, nil
}

// SignIn verifies the credentials and returns the user with a fresh
// session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, string, error) {
	var record models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", fmt.Errorf("fetch user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	user := toUser(record)
	token, err := s.tokens.Generate(user.ID, user.DisplayName)
	if err != nil {
		return User{}, "", fmt.Errorf("generate token: %w", err)
	}
	s.notify(user, true)
	return user, token, nil
}

// SignOut notifies subscribers that the session ended. Tokens are not
// revoked server-side; they simply expire.
func (s *Service) SignOut(user User) {
	s.notify(user, false)
}

// CurrentUser implements Provider.
func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return User{}, err
	}

	var record models.User
	err = s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("fetch user: %w", err)
	}
	return toUser(record), nil
}

// UpdateDisplayName changes the display name of an existing account.
// Display names already snapshotted onto comments are left as they
// were at post time.
func (s *Service) UpdateDisplayName(ctx context.Context, userID, displayName string) (User, error) {
	var record models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("fetch user: %w", err)
	}

	record.DisplayName = displayName
	if err := s.db.WithContext(ctx).Model(&record).Update("display_name", displayName).Error; err != nil {
		return User{}, fmt.Errorf("update display name: %w", err)
	}
	return toUser(record), nil
}

// OnSessionChange implements Provider.
func (s *Service) OnSessionChange(fn func(user User, signedIn bool)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) notify(user User, signedIn bool) {
	s.mu.Lock()
	listeners := append(([]func(User, bool))(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(user, signedIn)
	}
}

func toUser(record models.User) User {
	return User{
		ID:          record.ID,
		DisplayName: record.DisplayName,
		Email:       record.Email,
	}
}

// Ensure Service implements Provider at compile time.
var _ Provider = (*Service)(nil)
