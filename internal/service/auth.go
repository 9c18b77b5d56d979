// Package service contains the business logic layer. Handlers parse HTTP
// and translate errors; services enforce the rules and orchestrate the
// repositories. Nothing in this package imports net/http.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

const minPasswordLength = 6

// AuthService handles signup, login, and profile management.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignUp registers a new account and signs them in. A duplicate email
// surfaces as apperror.ErrConflict from the repository.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))

	return s.issueToken(user)
}

// Login authenticates with email and password. Any failure — unknown
// email, wrong password, or an OAuth-only account with no password — comes
// back as the same apperror.ErrUnauthorized, so responses don't reveal
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueToken(user)
}

// LoginGitHub completes the OAuth callback: upsert the account keyed on
// the GitHub ID, then issue a token. First login creates the user,
// subsequent logins refresh the email.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	email := ghUser.Email
	if email == "" {
		// GitHub users can hide their email; fall back to the noreply form.
		email = fmt.Sprintf("%s@users.noreply.github.com", ghUser.Login)
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Email:    strings.ToLower(email),
		FullName: ghUser.Login,
	}
	if err := s.users.UpsertByGitHubID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.Int64("githubID", ghUser.ID),
	)

	return s.issueToken(user)
}

// GetProfile returns the full user record for the authenticated user.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile changes the editable profile fields. Email, points, and
// the admin flag are not client-editable.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, fullName string, age int, gender string) (*model.User, error) {
	if age < 0 {
		return nil, apperror.ValidationFailed("age", "age cannot be negative")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FullName = strings.TrimSpace(fullName)
	user.Age = age
	user.Gender = strings.TrimSpace(gender)

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
