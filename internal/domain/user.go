package domain

// Role is the coarse role claim issued by the identity provider.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// User is owned by the identity provider; this service only references it.
type User struct {
	ID    string
	Email string
	Role  Role
}
