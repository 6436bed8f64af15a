package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/secret"
)

// tokenSecretLen gives about 190 bits of entropy over secret.Alphabet.
const tokenSecretLen = 32

// IssueToken creates an API token for the user. The returned plaintext has the form
// "<id>.<secret>" and is shown only once; the database keeps the argon2id hash of the secret.
func (s *Service) IssueToken(ctx context.Context, userID uint64, name string, ttl time.Duration) (string, *models.APIToken, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound.With("id %d", userID)
		}

		return "", nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load user"))
	}

	plain, err := secret.New(tokenSecretLen)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	hash, err := argon2id.CreateHash(plain, argon2id.DefaultParams)
	if err != nil {
		return "", nil, apperr.Internal(pkgerrors.Wrap(err, "failed to hash token"))
	}

	token := models.APIToken{UserID: userID, Name: name, Hash: hash}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		token.ExpiresAt = &exp
	}

	if err = db.Omit("User").Create(&token).Error; err != nil {
		return "", nil, apperr.Internal(pkgerrors.Wrap(err, "failed to store token"))
	}

	return strconv.FormatUint(token.ID, 10) + "." + plain, &token, nil
}

// VerifyToken returns the active user owning the plaintext token.
func (s *Service) VerifyToken(ctx context.Context, plaintext string) (*models.User, error) {
	idPart, given, ok := strings.Cut(plaintext, ".")
	if !ok || given == "" {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	db := s.db.WithContext(ctx)

	var token models.APIToken
	if err = db.Preload("User").First(&token, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load token"))
	}

	match, err := argon2id.ComparePasswordAndHash(given, token.Hash)
	if err != nil {
		log.Error().Err(err).Uint64("token_id", token.ID).Msg("failed to verify token")
		return nil, ErrInvalidToken
	}

	if !match {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	if token.Expired(now) {
		return nil, ErrTokenExpired
	}

	if !token.User.Active {
		return nil, ErrUserAccountDisabled
	}

	if err = db.Model(&token).UpdateColumn("last_used_at", now).Error; err != nil {
		log.Warn().Err(err).Uint64("token_id", token.ID).Msg("failed to record token use")
	}

	return &token.User, nil
}
