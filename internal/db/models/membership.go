package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MembershipStatus is the lifecycle state of a membership. Only active memberships grant access.
type MembershipStatus string

// Membership states.
const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipInvited   MembershipStatus = "INVITED"
	MembershipSuspended MembershipStatus = "SUSPENDED"
)

// ErrInvalidBasis is returned when a membership is saved without exactly one authorization basis.
var ErrInvalidBasis = errors.New("membership must have exactly one of role or custom role")

// AuthorizationBasis is where a membership's base permissions come from:
// a BuiltinRole or a CustomRoleBasis.
type AuthorizationBasis interface {
	fmt.Stringer
	isAuthorizationBasis()
}

// BuiltinRole is a basis backed by a built-in role's defaults.
type BuiltinRole struct {
	Role Role `json:"role"`
}

func (BuiltinRole) isAuthorizationBasis() {}

func (b BuiltinRole) String() string {
	return string(b.Role)
}

// CustomRoleBasis is a basis backed by a team's custom role.
type CustomRoleBasis struct {
	ID uint64 `json:"id"`
}

func (CustomRoleBasis) isAuthorizationBasis() {}

func (b CustomRoleBasis) String() string {
	return fmt.Sprintf("custom:%d", b.ID)
}

// Membership links a user to a team.
//
// The basis is persisted in two nullable columns. Read and write it with Basis and SetBasis,
// which keep exactly one of them set.
type Membership struct {
	// ID is the unique identifier for the membership.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// UserID is the member. Combined with TeamID this forms a unique constraint.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_membership_user_team" json:"userId"`
	// TeamID is the team.
	TeamID uint64 `gorm:"not null;uniqueIndex:idx_membership_user_team;index" json:"teamId"`
	// Status is the membership state.
	Status MembershipStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	// Role is set when the basis is a built-in role.
	Role *Role `gorm:"type:varchar(32);index" json:"role,omitempty"`
	// CustomRoleID is set when the basis is a custom role.
	CustomRoleID *uint64 `gorm:"index" json:"customRoleId,omitempty"`
	// User is the associated user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	// Team is the associated team.
	Team Team `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the membership was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Membership model.
func (Membership) TableName() string {
	return "memberships"
}

// Basis returns the membership's authorization basis, nil if none is set.
func (m *Membership) Basis() AuthorizationBasis {
	switch {
	case m.CustomRoleID != nil:
		return CustomRoleBasis{ID: *m.CustomRoleID}
	case m.Role != nil:
		return BuiltinRole{Role: *m.Role}
	default:
		return nil
	}
}

// SetBasis replaces the membership's authorization basis.
func (m *Membership) SetBasis(b AuthorizationBasis) {
	m.Role = nil
	m.CustomRoleID = nil

	switch v := b.(type) {
	case BuiltinRole:
		m.Role = v.Role.Ptr()
	case CustomRoleBasis:
		id := v.ID
		m.CustomRoleID = &id
	}
}

// HasRole reports whether the membership's basis is the built-in role r.
func (m *Membership) HasRole(r Role) bool {
	b, ok := m.Basis().(BuiltinRole)

	return ok && b.Role == r
}

// IsActive reports whether the membership grants access.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}

// BeforeSave rejects memberships with zero or two bases.
func (m *Membership) BeforeSave(*gorm.DB) error {
	if (m.Role == nil) == (m.CustomRoleID == nil) {
		return ErrInvalidBasis
	}

	if m.Role != nil && !m.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidBasis, *m.Role)
	}

	return nil
}

// MembershipGrant adds a permission to a single membership on top of its basis.
type MembershipGrant struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	MembershipID uint64     `gorm:"not null;uniqueIndex:idx_grant_membership_permission" json:"membershipId"`
	PermissionID uint64     `gorm:"not null;uniqueIndex:idx_grant_membership_permission" json:"permissionId"`
	Membership   Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"-"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName specifies the database table name for the MembershipGrant model.
func (MembershipGrant) TableName() string {
	return "membership_grants"
}

// MembershipDeny removes a permission from a single membership. Denies win over grants and basis.
type MembershipDeny struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	MembershipID uint64     `gorm:"not null;uniqueIndex:idx_deny_membership_permission" json:"membershipId"`
	PermissionID uint64     `gorm:"not null;uniqueIndex:idx_deny_membership_permission" json:"permissionId"`
	Membership   Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"-"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName specifies the database table name for the MembershipDeny model.
func (MembershipDeny) TableName() string {
	return "membership_denies"
}
