package domain

// Roles recognised by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is an already-verified caller as supplied by the identity provider.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

// HasRole reports whether the identity holds role. A nil identity holds none.
func (i *Identity) HasRole(role string) bool {
	return i != nil && role != "" && i.Role == role
}

// TokenVerifier verifies a session token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}
