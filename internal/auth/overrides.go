package auth

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/db/models"
)

// OverrideKind is the per-member override state of a permission.
type OverrideKind string

// Override kinds. OverrideNone means neither a grant nor a deny exists.
const (
	OverrideGrant OverrideKind = "GRANT"
	OverrideDeny  OverrideKind = "DENY"
	OverrideNone  OverrideKind = "NONE"
)

// Override is the override state of one permission on one membership after a change.
type Override struct {
	MembershipID   uint64       `json:"membershipId"`
	PermissionCode string       `json:"permissionCode"`
	Kind           OverrideKind `json:"kind"`
}

// GrantPermissionToMember adds permission to the membership, replacing a deny.
func (s *Service) GrantPermissionToMember(ctx context.Context, actorID, teamID, membershipID uint64, code string) (*Override, error) {
	return s.setOverride(ctx, actorID, teamID, membershipID, code, OverrideGrant)
}

// DenyPermissionToMember removes permission from the membership, replacing a grant.
func (s *Service) DenyPermissionToMember(ctx context.Context, actorID, teamID, membershipID uint64, code string) (*Override, error) {
	return s.setOverride(ctx, actorID, teamID, membershipID, code, OverrideDeny)
}

// RevokePermissionOverride deletes any grant or deny of permission on the membership.
func (s *Service) RevokePermissionOverride(ctx context.Context, actorID, teamID, membershipID uint64, code string) (*Override, error) {
	return s.setOverride(ctx, actorID, teamID, membershipID, code, OverrideNone)
}

// setOverride applies kind in one transaction. Grant and deny rows of a pair are never both present
// after it commits, and repeating a call leaves the rows unchanged.
func (s *Service) setOverride(
	ctx context.Context,
	actorID, teamID, membershipID uint64,
	code string,
	kind OverrideKind,
) (*Override, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.WithTx(tx).Authorize(ctx, actorID, teamID, PermPermissionsManage); err != nil {
			return err
		}

		// the membership row lock serializes override writes of one member
		if _, err := membershipInTeam(database.ForUpdate(tx), teamID, membershipID); err != nil {
			return err
		}

		var perm models.Permission
		if err := tx.Where("code = ?", code).First(&perm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPermissionNotFound.With("%s", code)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to load permission"))
		}

		pair := "membership_id = ? AND permission_id = ?"

		if kind != OverrideGrant {
			if err := tx.Where(pair, membershipID, perm.ID).Delete(&models.MembershipGrant{}).Error; err != nil {
				return apperr.Internal(pkgerrors.Wrap(err, "failed to delete grant"))
			}
		}

		if kind != OverrideDeny {
			if err := tx.Where(pair, membershipID, perm.ID).Delete(&models.MembershipDeny{}).Error; err != nil {
				return apperr.Internal(pkgerrors.Wrap(err, "failed to delete deny"))
			}
		}

		var row any

		switch kind {
		case OverrideGrant:
			row = &models.MembershipGrant{MembershipID: membershipID, PermissionID: perm.ID}
		case OverrideDeny:
			row = &models.MembershipDeny{MembershipID: membershipID, PermissionID: perm.ID}
		default:
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrapf(err, "failed to write %s", kind))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	overrideChanges.WithLabelValues(string(kind)).Inc()
	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Uint64("membership_id", membershipID).
		Str("permission", code).Str("override", string(kind)).Msg("permission override changed")

	return &Override{MembershipID: membershipID, PermissionCode: code, Kind: kind}, nil
}

// ListOverrides returns the grants and denies of a membership. Requires team.members.manage or permissions.manage.
func (s *Service) ListOverrides(ctx context.Context, actorID, teamID, membershipID uint64) ([]Override, error) {
	ok, err := s.HasAnyPermission(ctx, actorID, teamID, []string{PermPermissionsManage, PermTeamMembersManage})
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrPermissionMissing.With("%s", PermPermissionsManage)
	}

	db := s.db.WithContext(ctx)
	if _, err = membershipInTeam(db, teamID, membershipID); err != nil {
		return nil, err
	}

	grants, err := s.overrideCodes(db, "membership_grants", membershipID)
	if err != nil {
		return nil, err
	}

	denies, err := s.overrideCodes(db, "membership_denies", membershipID)
	if err != nil {
		return nil, err
	}

	out := make([]Override, 0, len(grants)+len(denies))
	for _, c := range grants {
		out = append(out, Override{MembershipID: membershipID, PermissionCode: c, Kind: OverrideGrant})
	}

	for _, c := range denies {
		out = append(out, Override{MembershipID: membershipID, PermissionCode: c, Kind: OverrideDeny})
	}

	return out, nil
}

func membershipInTeam(db *gorm.DB, teamID, membershipID uint64) (*models.Membership, error) {
	var m models.Membership

	err := db.Where("id = ? AND team_id = ?", membershipID, teamID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMembershipNotFound.With("id %d", membershipID)
	}

	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load membership"))
	}

	return &m, nil
}
