package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the public identity record. The password hash lives in its own
// column and never rides along on this struct; only the repository's
// credential path sees it.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	IsActive  bool       `json:"is_active"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// UserUpdate carries a partial update. A nil field means "leave unchanged",
// which is distinct from setting the field to its zero value.
type UserUpdate struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role"`
}

// Empty reports whether the update carries no fields at all.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FullName == nil && u.IsActive == nil && u.Role == nil
}

// ListFilter narrows and pages a user listing.
type ListFilter struct {
	Role   string
	Offset int
	Limit  int
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
