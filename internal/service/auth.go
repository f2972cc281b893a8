package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/model"
	"github.com/sakif/storelink/internal/repository"
	"github.com/sakif/storelink/internal/validation"
)

const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgSignupFailed       = "An error occurred while creating your account."
	MsgNoGitHubEmail      = "Your GitHub account has no verified email address."
)

// AuthService handles sign-up, log-in and account removal.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches cookies; the handler turns AuthResult.Token into one.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
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

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup creates a password account and opens a session for it.
//
// Rules are checked in a fixed order and the first failure is returned:
// missing fields, email format, password length, confirmation mismatch and
// finally an already registered email.
func (s *AuthService) Signup(ctx context.Context, email, password, confirm string) (*AuthResult, error) {
	form := validation.SignupForm{
		Email:           validation.NormalizeEmail(email),
		Password:        password,
		ConfirmPassword: confirm,
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	// Cheap pre-check; the UNIQUE constraint still guards the race.
	if _, err := s.users.GetUserByEmail(ctx, form.Email); err == nil {
		return nil, apperror.Conflict("email", "Email already registered.")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, s.failure("signup lookup", MsgSignupFailed, err)
	}

	hash, err := s.passwords.Hash(form.Password)
	if err != nil {
		return nil, s.failure("hash password", MsgSignupFailed, err)
	}

	user := &model.User{Email: form.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, s.failure("create user", MsgSignupFailed, err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return s.issue(user)
}

// Login checks an email/password pair. An unknown email and a wrong password
// produce the same error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	form := validation.LoginForm{
		Email:    validation.NormalizeEmail(email),
		Password: password,
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, form.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, s.failure("login lookup", MsgInvalidCredentials, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, form.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Error("password verification failed",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// primary email, creating a password-less account on first use.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := validation.NormalizeEmail(ghUser.Email)
	if email == "" {
		return nil, apperror.Unauthorized(MsgNoGitHubEmail)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{Email: email}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, s.failure("create GitHub user", MsgSignupFailed, err)
		}
		s.logger.Info("user signed up via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
	default:
		return nil, s.failure("GitHub lookup", MsgSignupFailed, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// DeleteAccount removes the user and every link they saved.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return s.failure("delete account", "An error occurred while deleting your account.", err)
	}
	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) failure(op, message string, err error) error {
	s.logger.Error("auth store failure",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperror.PersistenceFailed(message, err)
}
