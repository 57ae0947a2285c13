package user

// Roles as the remote API spells them.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// User mirrors the server record. The API exposes Mongo-style "_id" keys,
// so that is what we decode.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// IsAdmin is the only role distinction the console makes; MANAGER and STAFF
// see the same screens.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
