package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trove-market/trove/internal/shared"
	"github.com/trove-market/trove/internal/users"
)

// SignInResult carries the issued credentials after a successful login.
type SignInResult struct {
	Token           string
	UpdatePassToken string
	Username        string
}

// Service wraps registration and sign-in rules.
type Service struct {
	repo   users.Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo users.Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a basic-role account. The duplicate check covers the
// email and the case-insensitive username.
func (s *Service) Register(ctx context.Context, email, username, password string) error {
	existing, err := s.repo.FindByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: user", shared.ErrDuplicateName)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, email, username, string(hash))
	return err
}

// SignIn validates credentials by email or username. An unknown account
// and a wrong password produce the same failure so sign-in never
// confirms which addresses are registered.
func (s *Service) SignIn(ctx context.Context, email, username, password string) (*SignInResult, error) {
	user, err := s.repo.FindByEmailOrUsername(ctx, email, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.IssueAccess(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	updateToken, err := s.tokens.IssuePasswordUpdate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Token: token, UpdatePassToken: updateToken, Username: user.Username}, nil
}

// UpdatePassword changes a password. The dedicated update token must
// belong to the same user it is applied to; one user cannot rotate
// another's password with their own token.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, updateToken, newPassword string) error {
	claims, err := s.tokens.Verify(updateToken, PurposePasswordUpdate)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	affected, err := s.repo.UpdatePassword(ctx, userID, string(hash))
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
