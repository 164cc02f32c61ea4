package domain

import "time"

// Role enumerates operator roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCEO      Role = "ceo"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCEO, RoleEmployee:
		return true
	}
	return false
}

// ParseRole returns the role for s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User is a back-office operator account.
type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	Role             Role
	TwoFactorEnabled bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName is the name recorded on notes written by the user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown"
}
