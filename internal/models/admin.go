package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super-admin"
)

type Admin struct {
	ID       string    `json:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password string    `json:"-" gorm:"not null;size:255"`
	Role     AdminRole `json:"role" gorm:"not null;size:20;default:admin"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Admin) TableName() string {
	return "admins"
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = RoleAdmin
	}
	return nil
}

// Summary returns the public part of an admin account.
func (a *Admin) Summary() AdminSummary {
	return AdminSummary{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
	}
}

type AdminSummary struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     AdminRole `json:"role"`
}

// AdminRef is the creator reference resolved onto papers.
type AdminRef struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Username string `json:"username"`
}

func (AdminRef) TableName() string {
	return "admins"
}
