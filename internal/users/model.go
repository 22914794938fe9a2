package users

import (
	"strings"
	"time"
)

// User is a rider account created on first login with a provider identity.
// The (auth_provider, auth_provider_id) pair uniquely identifies one user.
type User struct {
	ID              string    `gorm:"column:id;primaryKey;size:36;not null"`
	Name            string    `gorm:"column:name;size:255;not null"`
	Email           string    `gorm:"column:email;size:320;not null;uniqueIndex:idx_users_email"`
	AuthProvider    string    `gorm:"column:auth_provider;size:50;not null;uniqueIndex:idx_users_provider_identity,priority:1"`
	AuthProviderID  string    `gorm:"column:auth_provider_id;size:255;not null;uniqueIndex:idx_users_provider_identity,priority:2"`
	IsPublicProfile bool      `gorm:"column:is_public_profile;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// normalize value helper used across service implementation.
func normalize(value string) string {
	return strings.TrimSpace(value)
}
