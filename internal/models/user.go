package models

import "time"

// Roles accepted by the role-gated route groups.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the credential record behind every account. Password hashing is
// performed explicitly by the auth and admin services before a User is
// persisted; the model itself never mutates PasswordHash.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:128;not null" json:"first_name"`
	LastName     string     `gorm:"size:128;not null" json:"last_name"`
	Role         string     `gorm:"size:32;not null;default:student" json:"role"`
	PhoneNumber  string     `gorm:"size:32" json:"phone_number,omitempty"`
	AvatarURL    string     `gorm:"size:512" json:"avatar_url,omitempty"`
	Bio          string     `gorm:"size:500" json:"bio,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins the name parts for display surfaces such as the leaderboard.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
