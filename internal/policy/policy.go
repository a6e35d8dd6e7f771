// Package policy is the role-based access gate. It decides admission only;
// translating a denial into a transport status stays with the caller.
package policy

import "go-identity/internal/model"

// RequireRole admits the user only when it holds exactly the given role.
func RequireRole(u model.User, role string) error {
	if u.Role != role {
		return model.ErrForbidden
	}
	return nil
}

// RequireAdmin gates the admin-only user management operations.
func RequireAdmin(u model.User) error {
	return RequireRole(u, model.RoleAdmin)
}

// RequireOtherUser rejects administrative actions an actor aims at its own
// record. Self-deletion is never allowed through the admin path.
func RequireOtherUser(actor model.User, targetID string) error {
	if actor.ID == targetID {
		return model.ErrCannotDeleteSelf
	}
	return nil
}
