package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/db/models"
)

var validate = validator.New() //nolint:gochecknoglobals

// CustomRoleInput describes a custom role to create or update.
type CustomRoleInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	DisplayName string   `json:"displayName" validate:"max=100"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// ValidationError converts validator errors into the validation kind.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return apperr.ErrValidation.With("field %s failed %s", first.Namespace(), first.Tag())
	}

	return apperr.ErrValidation.Wrap(err)
}

// ListCustomRoles returns the team's custom roles with their permissions. Any member may read them.
func (s *Service) ListCustomRoles(ctx context.Context, actorID, teamID uint64) ([]models.CustomRole, error) {
	if _, err := s.ActiveMembership(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	var roles []models.CustomRole

	err := s.db.WithContext(ctx).Preload("Permissions.Permission").
		Where("team_id = ?", teamID).Order("name").Find(&roles).Error
	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to list custom roles"))
	}

	return roles, nil
}

// CreateCustomRole creates a custom role in the team. Requires team.roles.manage.
func (s *Service) CreateCustomRole(ctx context.Context, actorID, teamID uint64, in CustomRoleInput) (*models.CustomRole, error) {
	if err := validate.Struct(in); err != nil {
		return nil, ValidationError(err)
	}

	role := models.CustomRole{
		TeamID:      teamID,
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Description: in.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.WithTx(tx).Authorize(ctx, actorID, teamID, PermTeamRolesManage); err != nil {
			return err
		}

		if err := tx.Omit("Permissions").Create(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCustomRoleExists.With("%s", in.Name)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to create custom role"))
		}

		return replaceCustomRolePermissions(tx, &role, in.Permissions)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Str("role", role.Name).
		Msg("custom role created")

	return &role, nil
}

// UpdateCustomRole changes a custom role's display name, description and permissions.
// The name is immutable. Requires team.roles.manage.
func (s *Service) UpdateCustomRole(
	ctx context.Context,
	actorID, teamID, roleID uint64,
	in CustomRoleInput,
) (*models.CustomRole, error) {
	if err := validate.Struct(in); err != nil {
		return nil, ValidationError(err)
	}

	var role models.CustomRole

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.WithTx(tx).Authorize(ctx, actorID, teamID, PermTeamRolesManage); err != nil {
			return err
		}

		if err := loadCustomRole(tx, teamID, roleID, &role); err != nil {
			return err
		}

		err := tx.Model(&role).Updates(map[string]any{
			"display_name": in.DisplayName,
			"description":  in.Description,
		}).Error
		if err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to update custom role"))
		}

		return replaceCustomRolePermissions(tx, &role, in.Permissions)
	})
	if err != nil {
		return nil, err
	}

	return &role, nil
}

// DeleteCustomRole deletes a custom role and moves every membership using it to fallback
// in the same transaction. It returns the number of reassigned memberships.
// Requires team.roles.manage.
func (s *Service) DeleteCustomRole(ctx context.Context, actorID, teamID, roleID uint64, fallback models.Role) (int64, error) {
	if !fallback.Valid() || fallback == models.RoleOwner {
		return 0, ErrInvalidRole.With("fallback %q", fallback)
	}

	var reassigned int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.WithTx(tx).Authorize(ctx, actorID, teamID, PermTeamRolesManage); err != nil {
			return err
		}

		var role models.CustomRole
		if err := loadCustomRole(tx, teamID, roleID, &role); err != nil {
			return err
		}

		// bulk update of both basis columns at once, the per-row hook would only see an empty model
		res := tx.Session(&gorm.Session{SkipHooks: true}).Model(&models.Membership{}).
			Where("custom_role_id = ?", role.ID).
			Updates(map[string]any{"role": fallback, "custom_role_id": nil})
		if res.Error != nil {
			return apperr.Internal(pkgerrors.Wrap(res.Error, "failed to reassign memberships"))
		}

		reassigned = res.RowsAffected

		if err := tx.Where("custom_role_id = ?", role.ID).Delete(&models.CustomRolePermission{}).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to delete custom role permissions"))
		}

		if err := tx.Delete(&role).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to delete custom role"))
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Uint64("custom_role_id", roleID).
		Str("fallback", string(fallback)).Int64("reassigned", reassigned).Msg("custom role deleted")

	return reassigned, nil
}

// loadCustomRole reads and locks the role row. Deleting a role and pointing a membership
// at it both go through here, so they cannot interleave.
func loadCustomRole(tx *gorm.DB, teamID, roleID uint64, role *models.CustomRole) error {
	err := database.ForUpdate(tx).Where("id = ? AND team_id = ?", roleID, teamID).First(role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomRoleNotFound.With("id %d", roleID)
	}

	if err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to load custom role"))
	}

	return nil
}

func replaceCustomRolePermissions(tx *gorm.DB, role *models.CustomRole, codes []string) error {
	perms, err := permissionsByCode(tx, codes)
	if err != nil {
		return err
	}

	if err = tx.Where("custom_role_id = ?", role.ID).Delete(&models.CustomRolePermission{}).Error; err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to clear custom role permissions"))
	}

	role.Permissions = make([]models.CustomRolePermission, 0, len(perms))
	for _, code := range codes {
		p, ok := perms[code]
		if !ok {
			continue
		}

		// duplicates in codes map to the same row
		delete(perms, code)

		role.Permissions = append(role.Permissions, models.CustomRolePermission{
			CustomRoleID: role.ID,
			PermissionID: p.ID,
			Permission:   p,
		})
	}

	if len(role.Permissions) == 0 {
		return nil
	}

	if err = tx.Omit("Permission").Create(&role.Permissions).Error; err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to write custom role permissions"))
	}

	return nil
}
