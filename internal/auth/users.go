package auth

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/models"
)

// CreateUser creates a new active user.
func (s *Service) CreateUser(ctx context.Context, username, email, firstName, lastName string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	// Check if user already exists
	var existing models.User

	err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrUserNameOrEmailExists.With("%s", username)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to check existing user"))
	}

	user := models.User{
		Active:    true,
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}

	if err = db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserNameOrEmailExists.With("%s", username)
		}

		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to create user"))
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound.With("%s", username)
	}

	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load user"))
	}

	return &user, nil
}

// CreateTeam creates a team with ownerID as its first owner.
func (s *Service) CreateTeam(ctx context.Context, name string, ownerID uint64) (*models.Team, error) {
	team := models.Team{Name: name}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound.With("id %d", ownerID)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to load owner"))
		}

		if err := tx.Create(&team).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to create team"))
		}

		_, err := s.WithTx(tx).AddMember(ctx, team.ID, owner.ID, models.BuiltinRole{Role: models.RoleOwner})

		return err
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}
