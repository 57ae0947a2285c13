package invite

import "time"

// Invite is a server-issued, single-use registration token with a
// pre-assigned role. The console only creates and lists these.
type Invite struct {
	ID         string     `json:"_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Token      string     `json:"token"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func (i Invite) Accepted() bool {
	return i.AcceptedAt != nil
}

// CreateForm is the invite issuance form.
type CreateForm struct {
	Email string `form:"email" binding:"required,email"`
	Role  string `form:"role" binding:"required,oneof=ADMIN MANAGER STAFF"`
}
