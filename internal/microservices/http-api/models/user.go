package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yamdb/internal/rbac"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `gorm:"size:150;not null;uniqueIndex;uniqueIndex:idx_users_username_email,priority:1" json:"username"`
	Email     string    `gorm:"size:254;not null;uniqueIndex;uniqueIndex:idx_users_username_email,priority:2" json:"email"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Role      rbac.Role `gorm:"size:20;not null;default:'user'" json:"role"`
	// IsSuperuser grants admin rights regardless of Role.
	IsSuperuser bool `gorm:"not null;default:false" json:"-"`

	// ConfirmationCode is re-sent on every signup retry; it stays valid after
	// a successful token exchange.
	ConfirmationCode string     `gorm:"size:64" json:"-"`
	ConfirmedAt      *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = rbac.RoleUser
	}
	return
}

func (User) TableName() string {
	return "users"
}

// EffectiveRole folds the superuser flag into the role hierarchy.
func (user *User) EffectiveRole() rbac.Role {
	if user.IsSuperuser {
		return rbac.RoleAdmin
	}
	return user.Role
}

// Identity is the caller this account acts as once authenticated.
func (user *User) Identity() rbac.Identity {
	return rbac.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.EffectiveRole(),
	}
}

// IsConfirmed reports whether a confirmation code was ever exchanged.
func (user *User) IsConfirmed() bool {
	return user.ConfirmedAt != nil
}
