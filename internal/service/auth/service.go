package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
)

const minPasswordLength = 8

var (
	ErrAdminExists        = errors.New("an admin account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("role must be admin, manager or farmer")
	ErrFarmerRequired     = errors.New("farmer accounts must reference a farmer")
	ErrUnknownFarmer      = errors.New("farmer does not exist")
)

// Store persists user accounts.
type Store interface {
	InsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CountUsersByRole(ctx context.Context, role models.Role) (int64, error)
}

// FarmerLookup resolves the farmer a farmer account belongs to.
type FarmerLookup interface {
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
}

// NewUser is the input of CreateUser.
type NewUser struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	FarmerID string      `json:"farmer_id"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Service manages accounts and logins.
type Service struct {
	store    Store
	farmers  FarmerLookup
	tokens   *Tokens
	hashCost int
	now      func() time.Time
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService wires the auth service.
func NewService(store Store, farmers FarmerLookup, tokens *Tokens, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:    store,
		farmers:  farmers,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the token verifier used by the HTTP middleware.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// RegisterAdmin bootstraps the first admin. It fails once any admin exists.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	n, err := s.store.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return models.User{}, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return models.User{}, ErrAdminExists
	}

	return s.create(ctx, NewUser{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
}

// CreateUser adds an operator or farmer account.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (models.User, error) {
	if !in.Role.Valid() {
		return models.User{}, ErrInvalidRole
	}
	if in.Role == models.RoleFarmer {
		if in.FarmerID == "" {
			return models.User{}, ErrFarmerRequired
		}
		if _, err := s.farmers.GetFarmer(ctx, in.FarmerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return models.User{}, ErrUnknownFarmer
			}
			return models.User{}, fmt.Errorf("lookup farmer: %w", err)
		}
	} else {
		in.FarmerID = ""
	}

	return s.create(ctx, in)
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("user_id", user.ID))
		return Session{}, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Me returns the account behind a token.
func (s *Service) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) create(ctx context.Context, in NewUser) (models.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		FarmerID:     in.FarmerID,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
