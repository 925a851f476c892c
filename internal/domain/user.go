package domain

import "time"

// Role is the authorization level of a user within its organization.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account that belongs to exactly one organization.
type User struct {
	ID                  int64
	OrganizationID      int64
	Email               string
	PasswordHash        string
	FullName            string
	Role                Role
	IsActive            bool
	IsVerified          bool
	ProfileImageURL     *string
	DeletionRequestedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsAdmin reports whether the user administers its organization.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DeletionPending reports whether the user asked for account deletion.
func (u User) DeletionPending() bool {
	return u.DeletionRequestedAt != nil
}

// DeletionDueAt returns when a pending deletion becomes final.
func (u User) DeletionDueAt(grace time.Duration) (time.Time, bool) {
	if u.DeletionRequestedAt == nil {
		return time.Time{}, false
	}
	return u.DeletionRequestedAt.Add(grace), true
}
