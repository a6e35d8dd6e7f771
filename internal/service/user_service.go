package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go-identity/internal/model"
	"go-identity/internal/policy"
	"go-identity/pkg/apierror"
)

// UserService carries the admin-facing user management operations. Role
// gating happens in the routing layer; the self-delete guard lives here
// because it needs the acting user next to the target id.
type UserService struct {
	directory Directory
}

func NewUserService(directory Directory) *UserService {
	return &UserService{directory: directory}
}

func (s *UserService) List(ctx context.Context, filter model.ListFilter) ([]model.User, error) {
	if role := strings.TrimSpace(filter.Role); role != "" && !model.ValidRole(role) {
		return nil, apierror.New("BAD_REQUEST", "invalid role filter", role, http.StatusBadRequest)
	}

	return s.directory.List(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.directory.FindByID(ctx, id)
}

// Update mirrors UpdateSelf's partial-field and uniqueness semantics for an
// arbitrary target id.
func (s *UserService) Update(ctx context.Context, id string, fields model.UserUpdate) (model.User, error) {
	if fields.Empty() {
		return s.directory.FindByID(ctx, id)
	}
	if err := validateUpdate(fields); err != nil {
		return model.User{}, err
	}

	return s.directory.Update(ctx, id, fields)
}

func (s *UserService) Delete(ctx context.Context, actor model.User, id string) error {
	if err := policy.RequireOtherUser(actor, id); err != nil {
		return err
	}

	if err := s.directory.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}
