package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-identity/internal/crypto"
	"go-identity/internal/model"
	"go-identity/pkg/apierror"
)

// Directory is the narrow query interface the auth core needs from the
// persistent user store. Uniqueness and atomicity of insert/update are the
// store's responsibility; this layer never re-reads to check.
type Directory interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	PasswordHashByEmail(ctx context.Context, email string) (string, error)
	Insert(ctx context.Context, u model.User, passwordHash string) error
	Update(ctx context.Context, id string, fields model.UserUpdate) (model.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.ListFilter) ([]model.User, error)
}

type AuthService struct {
	directory Directory
	hasher    *crypto.Hasher
	codec     *crypto.Codec
}

func NewAuthService(directory Directory, hasher *crypto.Hasher, codec *crypto.Codec) *AuthService {
	return &AuthService{directory: directory, hasher: hasher, codec: codec}
}

// Register creates a user with a freshly hashed password. The store's unique
// email index decides duplicate registrations atomically, so two concurrent
// registrations of one email yield exactly one success.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "email is required", "email", http.StatusBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, apierror.New("BAD_REQUEST", "invalid email address", "email", http.StatusBadRequest)
	}
	if req.Password == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "password is required", "password", http.StatusBadRequest)
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return model.User{}, apierror.New("BAD_REQUEST", "invalid role", role, http.StatusBadRequest)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		IsActive:  active,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.directory.Insert(ctx, user, hash); err != nil {
		return model.User{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials, stamps last_login and issues a bearer token
// bound to the user's email. The last-login write is best-effort: a store
// failure there is logged and the login still succeeds.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.Token, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return model.Token{}, model.ErrInvalidCredentials
		}
		return model.Token{}, err
	}

	hash, err := s.directory.PasswordHashByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return model.Token{}, model.ErrInvalidCredentials
		}
		return model.Token{}, err
	}

	if !s.hasher.Verify(password, hash) {
		return model.Token{}, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		return model.Token{}, model.ErrAccountDisabled
	}

	now := time.Now().UTC()
	if err := s.directory.UpdateLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("last login update failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	token, err := s.codec.Issue(user.Email)
	if err != nil {
		return model.Token{}, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return model.Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.codec.TTLSeconds(),
		User:        user,
	}, nil
}

// Authenticate resolves a bearer token to a live user. A structurally valid
// token whose subject no longer resolves is rejected the same way as a bad
// token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.User, error) {
	subject, err := s.codec.Verify(token)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", model.ErrInvalidCredentials, err)
	}

	user, err := s.directory.FindByEmail(ctx, subject)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, model.ErrInvalidCredentials
		}
		return model.User{}, err
	}
	return user, nil
}

// RequireActive gates every authenticated operation downstream of
// Authenticate.
func (s *AuthService) RequireActive(user model.User) (model.User, error) {
	if !user.IsActive {
		return model.User{}, model.ErrInactiveAccount
	}
	return user, nil
}

// UpdateSelf applies only the supplied fields to the current user. An empty
// update returns the user unchanged without touching the store.
func (s *AuthService) UpdateSelf(ctx context.Context, current model.User, fields model.UserUpdate) (model.User, error) {
	if fields.Empty() {
		return current, nil
	}
	if err := validateUpdate(fields); err != nil {
		return model.User{}, err
	}

	return s.directory.Update(ctx, current.ID, fields)
}

func validateUpdate(fields model.UserUpdate) error {
	if fields.Email != nil {
		email := strings.TrimSpace(*fields.Email)
		if email == "" {
			return apierror.New("BAD_REQUEST", "email cannot be empty", "email", http.StatusBadRequest)
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return apierror.New("BAD_REQUEST", "invalid email address", "email", http.StatusBadRequest)
		}
	}
	if fields.Role != nil && !model.ValidRole(*fields.Role) {
		return apierror.New("BAD_REQUEST", "invalid role", *fields.Role, http.StatusBadRequest)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrUserNotFound)
}
