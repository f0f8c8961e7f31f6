package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"task-service/internal/model"
	"task-service/internal/password"
	"task-service/internal/repository"
)

// TokenIssuer mints session tokens for a user id.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	CurrentUser(ctx context.Context, identity model.Identity) (*model.User, error)
	UpdateAvatar(ctx context.Context, identity model.Identity, avatarURL string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || plaintext == "" {
		return nil, "", validationError("Missing fields")
	}
	if len(plaintext) > password.MaxLength {
		return nil, "", validationError("Password is too long")
	}

	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}

	hashed, err := password.Hash(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrConflict
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, plaintext string) (*model.User, string, error) {
	email = NormalizeEmail(email)
	if email == "" || plaintext == "" {
		return nil, "", validationError("Missing fields")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

// CurrentUser resolves identity to its user. Anonymous identities and ids
// with no matching user yield (nil, nil).
func (s *authService) CurrentUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	if identity.IsAnonymous() {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user %s: %w", identity.UserID, err)
	}

	return user, nil
}

func (s *authService) UpdateAvatar(ctx context.Context, identity model.Identity, avatarURL string) (*model.User, error) {
	if identity.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, validationError("Avatar URL is required")
	}

	user, err := s.userRepo.UpdateAvatar(ctx, identity.UserID, avatarURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	return user, nil
}
