// Package service provides account business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

const (
	minFieldLength        = 2
	maxFieldLength        = 30
	maxProfileImageURLLen = 2048
)

// TokenIssuer mints access tokens for a principal.
type TokenIssuer interface {
	Issue(p model.Principal) (string, error)
}

// UserService handles registration, login and profile reads.
type UserService struct {
	users  repository.UserStore
	hasher auth.PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserStore, hasher auth.PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

// LoginResult carries both credentials handed out at login.
type LoginResult struct {
	User        *model.User
	APIKey      string
	AccessToken string
}

// UpdateProfileInput defines a profile change.
type UpdateProfileInput struct {
	Nickname        string
	ProfileImageURL string
}

// Register creates a user with a fresh API key.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validateField("password", input.Password); err != nil {
		return nil, err
	}
	nickname := strings.TrimSpace(input.Nickname)
	if err := validateField("nickname", nickname); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           model.NewID(),
		Email:        email,
		PasswordHash: hash,
		APIKey:       auth.NewAPIKey(),
		Nickname:     nickname,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperror.Conflict(apperror.CodeEmailExists, "email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the password and returns the user's API key plus a new
// access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return nil, apperror.Malformed("email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "no account with that email")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperror.Malformed("password does not match")
	}

	token, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{User: user, APIKey: user.APIKey, AccessToken: token}, nil
}

// Me returns the user behind the principal.
func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the nickname and profile image URL.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	nickname := strings.TrimSpace(input.Nickname)
	if err := validateField("nickname", nickname); err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(input.ProfileImageURL)
	if len(imageURL) > maxProfileImageURLLen {
		return nil, apperror.BadRequest("profile image url is too long")
	}

	if err := s.users.UpdateUserProfile(ctx, userID, nickname, imageURL); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Me(ctx, userID)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validateField("email", email); err != nil {
		return "", err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.Malformed("email is not a valid address")
	}
	return email, nil
}

func validateField(name, value string) error {
	n := utf8.RuneCountInString(value)
	if strings.TrimSpace(value) == "" {
		return apperror.Malformed(name + " is required")
	}
	if n < minFieldLength || n > maxFieldLength {
		return apperror.Malformed(fmt.Sprintf("%s must be %d-%d characters", name, minFieldLength, maxFieldLength))
	}
	return nil
}
