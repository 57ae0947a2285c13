package project

const (
	StatusActive   = "ACTIVE"
	StatusArchived = "ARCHIVED"
	StatusDeleted  = "DELETED"
)

// CreatedBy is the populated author sub-document the API returns on each
// project.
type CreatedBy struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Project struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   CreatedBy `json:"createdBy"`
}

// Deleted projects stay in the list (soft delete); the list view renders
// them struck through.
func (p Project) Deleted() bool {
	return p.Status == StatusDeleted
}

// CreateForm is the project creation form.
type CreateForm struct {
	Name        string `form:"name" binding:"required"`
	Description string `form:"description" binding:"required"`
}

// UpdateForm is a full replacement payload, matching the edit screen.
type UpdateForm struct {
	Name        string `form:"name" binding:"required"`
	Description string `form:"description" binding:"required"`
	Status      string `form:"status" binding:"required,oneof=ACTIVE ARCHIVED DELETED"`
}
