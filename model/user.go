package model

// User roles
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// User is an account known to the role side table
type User struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}
