package validator

import (
	"github.com/paperlords/admin-service/internal/models"
)

// PaperCreateRequest represents the request structure for creating papers.
// Field rules are enforced on the resulting record by ValidatePaper.
type PaperCreateRequest struct {
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Subject     string  `json:"subject"`
	Year        int     `json:"year"`
	Season      string  `json:"season"`
	PaperType   string  `json:"paperType"`
	DriveLink   string  `json:"driveLink"`
	Description *string `json:"description"`
}

// PaperUpdateRequest is a partial update; nil fields are left untouched.
// The creator reference is absent so it cannot be reassigned.
type PaperUpdateRequest struct {
	Title       *string `json:"title"`
	Type        *string `json:"type"`
	Subject     *string `json:"subject"`
	Year        *int    `json:"year"`
	Season      *string `json:"season"`
	PaperType   *string `json:"paperType"`
	DriveLink   *string `json:"driveLink"`
	Description *string `json:"description"`
}

// AdminRegisterRequest represents the request structure for registering admins
type AdminRegisterRequest struct {
	Username string           `json:"username" validate:"required,min=3,max=50"`
	Email    string           `json:"email" validate:"required,email,max=255"`
	Password string           `json:"password" validate:"required,min=6,max=72"`
	Role     models.AdminRole `json:"role" validate:"omitempty,admin_role"`
}

// LoginRequest accepts either a username or an email as the identifier
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identifier returns whichever login identifier was supplied
func (r *LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}
