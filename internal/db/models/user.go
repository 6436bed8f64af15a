package models

import "time"

// User represents a user account in the system.
// Users authenticate with API tokens and gain team access through memberships.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Active indicates whether the user account is active and can authenticate.
	Active bool `json:"active"`
	// Username is the unique username.
	Username string `gorm:"unique;size:100;not null" json:"username"`
	// Email is the user's email address, used as notification recipient.
	Email string `gorm:"size:255;not null" json:"email"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"firstName"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100" json:"lastName"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// APIToken is a bearer credential of a user. Only the argon2id hash of the secret is stored.
type APIToken struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"not null;index" json:"userId"`
	// User is the token owner. Tokens are removed together with their user (CASCADE).
	User User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name string `gorm:"size:100;not null" json:"name"`
	Hash string `gorm:"size:255;not null" json:"-"`
	// ExpiresAt is nil for tokens that never expire.
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TableName specifies the database table name for the APIToken model.
func (APIToken) TableName() string {
	return "api_tokens"
}

// Expired reports whether the token is past its expiry at now.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
