package auth

import "time"

// Role names carried in the access token.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleMember = "member"
)

// IsStaffRole reports whether role may act on behalf of other members.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff || role == RoleMember
}

// User is a community member account. At least one of Email and Phone is set.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Phone        *string   `gorm:"type:varchar(32);uniqueIndex" json:"phone,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
