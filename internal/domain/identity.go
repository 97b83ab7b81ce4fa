package domain

// Identity is the verified user attached to a connection. It is produced by
// the auth boundary before the hub ever sees the connection; the hub trusts
// it without re-validating.
type Identity struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
	Role         string `json:"role"`
}
