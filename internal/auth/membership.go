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

// AddMember creates an active membership without an acting user. It backs the administrative CLI.
func (s *Service) AddMember(ctx context.Context, teamID, userID uint64, basis models.AuthorizationBasis) (*models.Membership, error) {
	m := models.Membership{UserID: userID, TeamID: teamID, Status: models.MembershipActive}
	m.SetBasis(basis)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkBasisInTeam(tx, teamID, basis); err != nil {
			return err
		}

		if err := tx.Omit("User", "Team").Create(&m).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return ErrAlreadyMember.With("user %d team %d", userID, teamID)
			case errors.Is(err, models.ErrInvalidBasis):
				return ErrInvalidRole.Wrap(err)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to create membership"))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// ListMembers returns the team's memberships with their users. Any active member may read them.
func (s *Service) ListMembers(ctx context.Context, actorID, teamID uint64) ([]models.Membership, error) {
	if _, err := s.ActiveMembership(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	var members []models.Membership
	if err := s.db.WithContext(ctx).Preload("User").Where("team_id = ?", teamID).
		Order("id").Find(&members).Error; err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to list members"))
	}

	return members, nil
}

// SetMemberBasis changes the authorization basis of a membership. Requires team.members.manage.
// Only owners may make someone an owner or change an owner's basis.
func (s *Service) SetMemberBasis(
	ctx context.Context,
	actorID, teamID, membershipID uint64,
	basis models.AuthorizationBasis,
) (*models.Membership, error) {
	if basis == nil {
		return nil, ErrInvalidRole.With("missing basis")
	}

	if b, ok := basis.(models.BuiltinRole); ok && !b.Role.Valid() {
		return nil, ErrInvalidRole.With("%q", b.Role)
	}

	var m *models.Membership

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := s.WithTx(tx)

		if err := txs.Authorize(ctx, actorID, teamID, PermTeamMembersManage); err != nil {
			return err
		}

		var err error
		if m, err = membershipInTeam(tx, teamID, membershipID); err != nil {
			return err
		}

		if m.HasRole(models.RoleOwner) || basis == (models.BuiltinRole{Role: models.RoleOwner}) {
			actor, err := txs.ActiveMembership(ctx, actorID, teamID)
			if err != nil {
				return err
			}

			if !actor.HasRole(models.RoleOwner) {
				return ErrOwnerRequired
			}
		}

		if err = checkBasisInTeam(tx, teamID, basis); err != nil {
			return err
		}

		m.SetBasis(basis)

		if err = tx.Omit("User", "Team").Save(m).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to save membership"))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Uint64("membership_id", membershipID).
		Str("basis", basis.String()).Msg("membership basis changed")

	return m, nil
}

// SetMemberStatus activates, suspends or re-invites a membership. Requires team.members.manage;
// an owner membership can only be changed by another owner.
func (s *Service) SetMemberStatus(
	ctx context.Context,
	actorID, teamID, membershipID uint64,
	status models.MembershipStatus,
) error {
	switch status {
	case models.MembershipActive, models.MembershipInvited, models.MembershipSuspended:
	default:
		return apperr.ErrValidation.With("unknown membership status %q", status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.WithTx(tx).Authorize(ctx, actorID, teamID, PermTeamMembersManage); err != nil {
			return err
		}

		m, err := membershipInTeam(tx, teamID, membershipID)
		if err != nil {
			return err
		}

		if m.UserID == actorID {
			return apperr.ErrForbidden.With("members can not change their own status")
		}

		if m.HasRole(models.RoleOwner) {
			actor, err := s.WithTx(tx).ActiveMembership(ctx, actorID, teamID)
			if err != nil {
				return err
			}

			if !actor.HasRole(models.RoleOwner) {
				return ErrOwnerRequired
			}
		}

		if err = tx.Model(m).UpdateColumn("status", status).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to update membership status"))
		}

		return nil
	})
}

func checkBasisInTeam(tx *gorm.DB, teamID uint64, basis models.AuthorizationBasis) error {
	b, ok := basis.(models.CustomRoleBasis)
	if !ok {
		return nil
	}

	var role models.CustomRole

	return loadCustomRole(tx, teamID, b.ID, &role)
}
