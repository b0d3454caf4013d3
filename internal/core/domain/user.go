package domain

import "time"

// Role is the access tier a user account belongs to.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleDoctor, RolePatient}

// BootstrapLoginName is the distinguished administrator created on first run.
// It can never be deleted.
const BootstrapLoginName = "admin"

// NoAvatar is stored when the user has not uploaded a photo.
const NoAvatar = "no-photo.png"

// ParseRole validates a role tag. Matching is exact.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RolePatient:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

// User models an account in the credential store together with the
// role-profile it owns.
type User struct {
	ID           string
	LoginName    string
	PasswordHash string
	Role         Role
	Profile      Profile
	AvatarPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsBootstrap reports whether u is the undeletable default administrator.
func (u *User) IsBootstrap() bool {
	return u.LoginName == BootstrapLoginName
}

// Validate checks the profile reference invariant: a profile is present and
// its variant matches the role.
func (u *User) Validate() error {
	if u.LoginName == "" {
		return &MissingFieldError{Field: "loginName"}
	}
	if u.Profile == nil {
		return &MissingFieldError{Field: "profileFields"}
	}
	if ProfileRole(u.Profile) != u.Role {
		return ErrInvalidRole
	}
	return u.Profile.validate()
}

// Identity is the authenticated caller attached to a request by the access
// control middleware.
type Identity struct {
	UserID    string `json:"userId"`
	LoginName string `json:"loginName"`
	Role      Role   `json:"role"`
}

// Specialty is a medical specialty doctors are attached to.
type Specialty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
