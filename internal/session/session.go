// Package session handles registration, login and the active session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franckalain/ecoscan/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var (
	ErrMissingFields      = errors.New("Please fill in all fields.")
	ErrPasswordMismatch   = errors.New("Passwords do not match!")
	ErrPasswordTooShort   = fmt.Errorf("Password must be at least %d characters long!", MinPasswordLength)
	ErrUserExists         = errors.New("User with this email already exists!")
	ErrInvalidCredentials = errors.New("Invalid email or password!")
	ErrNoSession          = errors.New("Please log in first.")
)

// Store persists users and sessions. database.SQLiteDB implements it.
type Store interface {
	GetActiveSession(ctx context.Context, token string) (*models.Session, error)
	FindUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
}

// Service implements the account flows on top of a Store
type Service struct {
	store    Store
	hashCost int
	log      *logrus.Entry
}

// Option configures a Service
type Option func(*Service)

// WithHashCost sets the bcrypt cost
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService creates a Service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		hashCost: bcrypt.DefaultCost,
		log:      logrus.WithField("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registration is the sign-up form
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and logs it in
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, *models.Session, error) {
	email := normalizeEmail(r.Email)
	name := strings.TrimSpace(r.Name)
	if name == "" || email == "" || r.Password == "" {
		return nil, nil, ErrMissingFields
	}
	if r.Password != r.Confirm {
		return nil, nil, ErrPasswordMismatch
	}
	if len(r.Password) < MinPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	existing, err := s.store.FindUser(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("saving user: %w", err)
	}

	sess, err := s.start(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.WithField("user", user.ID).Info("user registered")
	return user, sess, nil
}

// Login checks the credentials and starts a session
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	user, err := s.store.FindUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.start(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

func (s *Service) start(ctx context.Context, user *models.User) (*models.Session, error) {
	sess := &models.Session{Token: uuid.New().String(), UserID: user.ID}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return sess, nil
}

// Active returns the user behind an active session token
func (s *Service) Active(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	sess, err := s.store.GetActiveSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrNoSession
	}
	return user, nil
}

// Logout ends the session. It is safe to call with an unknown token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
