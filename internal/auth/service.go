package auth

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/models"
)

// Service resolves effective permissions and administers memberships, overrides and custom roles.
type Service struct {
	db       *gorm.DB
	defaults *RoleDefaults
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, defaults *RoleDefaults) *Service {
	return &Service{db: db, defaults: defaults}
}

// WithTx returns a copy of the service running its queries on tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx, defaults: s.defaults}
}

// Defaults returns the role defaults store.
func (s *Service) Defaults() *RoleDefaults {
	return s.defaults
}

// RoleDefaultPermissions returns the default permission codes of a built-in role.
// Owners have no stored defaults and report the whole catalog.
func (s *Service) RoleDefaultPermissions(ctx context.Context, role models.Role) ([]string, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole.With("%q", role)
	}

	if role == models.RoleOwner {
		set := NewPermissionSet()
		for _, p := range Catalog() {
			set.Add(p.Code)
		}

		return set.Codes(), nil
	}

	return s.defaults.Permissions(ctx, s.db, role)
}

// ActiveMembership returns the user's active membership in the team.
func (s *Service) ActiveMembership(ctx context.Context, userID, teamID uint64) (*models.Membership, error) {
	var m models.Membership

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ? AND status = ?", userID, teamID, models.MembershipActive).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAMember.With("user %d team %d", userID, teamID)
	}

	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load membership"))
	}

	return &m, nil
}

// ResolveEffectivePermissions computes the user's permission set in the team.
//
// Owners get the whole catalog. Everybody else starts from their custom role or
// built-in role defaults, gains their grants and then loses their denies.
func (s *Service) ResolveEffectivePermissions(ctx context.Context, userID, teamID uint64) (PermissionSet, error) {
	m, err := s.ActiveMembership(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	return s.resolveMembership(ctx, m)
}

func (s *Service) resolveMembership(ctx context.Context, m *models.Membership) (PermissionSet, error) {
	db := s.db.WithContext(ctx)

	if m.HasRole(models.RoleOwner) {
		var codes []string
		if err := db.Model(&models.Permission{}).Pluck("code", &codes).Error; err != nil {
			return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load permission catalog"))
		}

		return NewPermissionSet(codes...), nil
	}

	var base []string

	switch b := m.Basis().(type) {
	case models.CustomRoleBasis:
		err := db.Table("permissions").
			Joins("JOIN custom_role_permissions ON custom_role_permissions.permission_id = permissions.id").
			Where("custom_role_permissions.custom_role_id = ?", b.ID).
			Pluck("permissions.code", &base).Error
		if err != nil {
			return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load custom role permissions"))
		}
	case models.BuiltinRole:
		codes, err := s.defaults.Permissions(ctx, s.db, b.Role)
		if err != nil {
			return nil, err
		}

		base = codes
	default:
		return nil, apperr.Internal(pkgerrors.Wrapf(models.ErrInvalidBasis, "membership %d", m.ID))
	}

	set := NewPermissionSet(base...)

	grants, err := s.overrideCodes(db, "membership_grants", m.ID)
	if err != nil {
		return nil, err
	}

	set.Add(grants...)

	// deny is applied last and always wins
	denies, err := s.overrideCodes(db, "membership_denies", m.ID)
	if err != nil {
		return nil, err
	}

	set.Remove(denies...)

	return set, nil
}

func (s *Service) overrideCodes(db *gorm.DB, table string, membershipID uint64) ([]string, error) {
	var codes []string

	err := db.Table("permissions").
		Joins("JOIN "+table+" ON "+table+".permission_id = permissions.id").
		Where(table+".membership_id = ?", membershipID).
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrapf(err, "failed to load %s", table))
	}

	return codes, nil
}

// Can reports whether the user holds permission in the team.
// Resolution failures count as not allowed. Use Authorize where the caller must tell them apart.
func (s *Service) Can(ctx context.Context, userID, teamID uint64, permission string) bool {
	set, err := s.ResolveEffectivePermissions(ctx, userID, teamID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			log.Error().Err(err).Uint64("user_id", userID).Uint64("team_id", teamID).
				Msg("failed to resolve permissions")
		}

		return false
	}

	return set.Has(permission)
}

// Authorize returns nil when the user holds permission in the team,
// ErrNotAMember or ErrPermissionMissing otherwise.
func (s *Service) Authorize(ctx context.Context, userID, teamID uint64, permission string) error {
	set, err := s.ResolveEffectivePermissions(ctx, userID, teamID)
	if err != nil {
		return err
	}

	if !set.Has(permission) {
		log.Debug().Uint64("user_id", userID).Uint64("team_id", teamID).Str("permission", permission).
			Msg("user lacks required permission")

		return ErrPermissionMissing.With("%s", permission)
	}

	return nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(ctx context.Context, userID, teamID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	set, err := s.ResolveEffectivePermissions(ctx, userID, teamID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if set.Has(perm) {
			return true, nil
		}
	}

	return false, nil
}

// HasAllPermissions checks if a user has all of the given permissions.
func (s *Service) HasAllPermissions(ctx context.Context, userID, teamID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return true, nil
	}

	set, err := s.ResolveEffectivePermissions(ctx, userID, teamID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if !set.Has(perm) {
			return false, nil
		}
	}

	return true, nil
}

// SeedCatalog inserts missing catalog permissions and refreshes descriptions of existing ones.
func (s *Service) SeedCatalog(ctx context.Context, catalog []models.Permission) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range catalog {
			var existing models.Permission

			err := tx.Where("code = ?", p.Code).Attrs(p).FirstOrCreate(&existing).Error
			if err != nil {
				return apperr.Internal(pkgerrors.Wrapf(err, "failed to seed permission %s", p.Code))
			}

			if existing.Description != p.Description {
				if err = tx.Model(&existing).Update("description", p.Description).Error; err != nil {
					return apperr.Internal(pkgerrors.Wrapf(err, "failed to update permission %s", p.Code))
				}
			}
		}

		return nil
	})
}
