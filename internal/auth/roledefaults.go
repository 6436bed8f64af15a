package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/controller/setting"
	"github.com/postdeck/postdeck/internal/db/models"
)

const (
	cacheKeyPrefix = "role-defaults:"

	// VersionSetting names the settings row that changes with every role default write.
	// Cache entries are keyed by it, so a write from any process retires them.
	VersionSetting = "role_defaults.version"
)

// RoleDefaults is the store of the built-in roles' default permissions.
// Rows are global, so reads go through an in-process cache and every write
// goes through SetRolePermissions, which records an audit entry per change
// and bumps the version row in the same transaction.
type RoleDefaults struct {
	db    *gorm.DB
	cache *fastcache.Cache
}

// NewRoleDefaults creates the store with a cache bounded by maxBytes.
func NewRoleDefaults(db *gorm.DB, maxBytes int) *RoleDefaults {
	return &RoleDefaults{
		db:    db,
		cache: fastcache.New(maxBytes),
	}
}

// Permissions returns the default permission codes of role.
// The query runs on db so callers inside a transaction keep using their connection.
func (r *RoleDefaults) Permissions(ctx context.Context, db *gorm.DB, role models.Role) ([]string, error) {
	version, err := setting.GetString(db.WithContext(ctx), VersionSetting, "")
	if err != nil {
		return nil, apperr.Internal(err)
	}

	key := cacheKey(version, role)

	if raw, ok := r.cache.HasGet(nil, key); ok {
		if len(raw) == 0 {
			return nil, nil
		}

		return strings.Split(string(raw), "\n"), nil
	}

	codes, err := loadRolePermissions(ctx, db, role)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, []byte(strings.Join(codes, "\n")))

	return codes, nil
}

// Invalidate drops every cached entry of role.
func (r *RoleDefaults) Invalidate(role models.Role) {
	version, err := setting.GetString(r.db, VersionSetting, "")
	if err != nil {
		r.cache.Reset()
		return
	}

	r.cache.Del(cacheKey(version, role))
}

func cacheKey(version string, role models.Role) []byte {
	return []byte(cacheKeyPrefix + version + ":" + string(role))
}

// Change is one permission added to or removed from a role.
type Change struct {
	Role   models.Role
	Code   string
	Action models.AuditAction
}

// SetRolePermissions replaces the default permissions of role with codes.
// The diff is written together with its audit entries in one transaction.
func (r *RoleDefaults) SetRolePermissions(ctx context.Context, role models.Role, codes []string, actor string) ([]Change, error) {
	if !role.Valid() || role == models.RoleOwner {
		return nil, ErrInvalidRole.With("%q has no configurable defaults", role)
	}

	var changes []Change

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := permissionsByCode(tx, codes)
		if err != nil {
			return err
		}

		current, err := loadRolePermissions(ctx, tx, role)
		if err != nil {
			return err
		}

		changes = diffRolePermissions(role, current, codes)

		for _, ch := range changes {
			switch ch.Action {
			case models.AuditActionAdd:
				err = tx.Create(&models.RolePermission{Role: role, PermissionID: perms[ch.Code].ID}).Error
			case models.AuditActionRemove:
				err = tx.Where("role = ? AND permission_id IN (?)", role,
					tx.Model(&models.Permission{}).Select("id").Where("code = ?", ch.Code)).
					Delete(&models.RolePermission{}).Error
			}

			if err != nil {
				return apperr.Internal(errors.Wrapf(err, "failed to %s %s for %s", ch.Action, ch.Code, role))
			}

			audit := models.RolePermissionAudit{Role: role, PermissionCode: ch.Code, Action: ch.Action, Actor: actor}
			if err = tx.Create(&audit).Error; err != nil {
				return apperr.Internal(errors.Wrap(err, "failed to write role audit"))
			}
		}

		if len(changes) == 0 {
			return nil
		}

		if err = setting.Set(tx, VersionSetting, []byte(uuid.NewString())); err != nil {
			return apperr.Internal(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Invalidate(role)

	for _, ch := range changes {
		log.Info().Str("role", string(role)).Str("permission", ch.Code).Str("action", string(ch.Action)).
			Str("actor", actor).Msg("role default changed")
	}

	return changes, nil
}

// Seed applies defaults for every role that has no rows yet. Roles an administrator
// already configured are left alone.
func (r *RoleDefaults) Seed(ctx context.Context, defaults map[models.Role][]string, actor string) error {
	for _, role := range models.BuiltinRoles() {
		codes, ok := defaults[role]
		if !ok {
			continue
		}

		var count int64
		if err := r.db.WithContext(ctx).Model(&models.RolePermission{}).Where("role = ?", role).
			Count(&count).Error; err != nil {
			return apperr.Internal(errors.Wrap(err, "failed to count role defaults"))
		}

		if count > 0 {
			continue
		}

		if _, err := r.SetRolePermissions(ctx, role, codes, actor); err != nil {
			return err
		}
	}

	return nil
}

// Audit returns the latest change log entries of role, newest first. An empty role returns all roles.
func (r *RoleDefaults) Audit(ctx context.Context, role models.Role, limit int) ([]models.RolePermissionAudit, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if role != "" {
		q = q.Where("role = ?", role)
	}

	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []models.RolePermissionAudit
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "failed to load role audit"))
	}

	return entries, nil
}

func loadRolePermissions(ctx context.Context, db *gorm.DB, role models.Role) ([]string, error) {
	var codes []string

	err := db.WithContext(ctx).Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role = ?", role).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "failed to load role permissions"))
	}

	return codes, nil
}

func diffRolePermissions(role models.Role, current, wanted []string) []Change {
	var changes []Change

	seen := make(map[string]bool, len(wanted))
	for _, code := range wanted {
		if seen[code] {
			continue
		}

		seen[code] = true

		if !slices.Contains(current, code) {
			changes = append(changes, Change{Role: role, Code: code, Action: models.AuditActionAdd})
		}
	}

	for _, code := range current {
		if !seen[code] {
			changes = append(changes, Change{Role: role, Code: code, Action: models.AuditActionRemove})
		}
	}

	return changes
}

// permissionsByCode loads the catalog entries for codes, failing on the first unknown code.
func permissionsByCode(db *gorm.DB, codes []string) (map[string]models.Permission, error) {
	out := make(map[string]models.Permission, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	var perms []models.Permission
	if err := db.Where("code IN ?", codes).Find(&perms).Error; err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "failed to load permissions"))
	}

	for _, p := range perms {
		out[p.Code] = p
	}

	for _, code := range codes {
		if _, ok := out[code]; !ok {
			return nil, ErrPermissionNotFound.With("%s", code)
		}
	}

	return out, nil
}
