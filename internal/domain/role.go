package domain

// Role constants define the allowed user roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// LoginType records how an account authenticates.
type LoginType string

const (
	LoginEmailPassword LoginType = "EMAIL_PASSWORD"

	// Social providers are recognised on stored accounts but have no login flow.
	LoginGoogle LoginType = "GOOGLE"
	LoginGitHub LoginType = "GITHUB"
)

// Valid reports whether t is a known login type.
func (t LoginType) Valid() bool {
	switch t {
	case LoginEmailPassword, LoginGoogle, LoginGitHub:
		return true
	}
	return false
}
