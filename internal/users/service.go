package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email")
	ErrWeakPassword = errors.New("password too short")
)

// Service verifies credentials and manages user records.
type Service struct {
	repo      UserRepository
	cost      int
	dummyHash []byte
}

// NewService builds a Service hashing with the given bcrypt cost.
// A non-positive cost falls back to bcrypt.DefaultCost.
func NewService(r UserRepository, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	// compared against when the email is unknown so both paths pay for one bcrypt round
	dummy, err := bcrypt.GenerateFromPassword([]byte("zen8labs-dummy-secret"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("users: generate dummy hash: %v", err))
	}
	return &Service{repo: r, cost: bcryptCost, dummyHash: dummy}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verify checks email and secret. It returns (nil, nil) when the user is
// unknown or the secret does not match, and an error only when the
// underlying store fails.
func (s *Service) Verify(ctx context.Context, email, secret string) (*models.Identity, error) {
	email = NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, nil
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("users.Verify: %w", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(secret))
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)); err != nil {
		return nil, nil
	}
	return u.Identity(), nil
}

// FindByID returns the sanitized identity for id, or (nil, nil).
func (s *Service) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("users.FindByID: %w", err)
	}
	return u.Identity(), nil
}

// Register creates a user with a bcrypt-hashed secret.
func (s *Service) Register(ctx context.Context, email, name, secret string) (*models.Identity, error) {
	const op = "users.Register"

	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(secret) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: hash: %w", op, err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u.Identity(), nil
}
