package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postdeck/postdeck/internal/db/models"
)

func TestIssueAndVerifyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	editor := f.userOf(models.RoleEditor)

	plaintext, token, err := f.svc.IssueToken(ctx, editor, "ci", 0)
	require.NoError(t, err)
	assert.Nil(t, token.ExpiresAt)
	assert.NotContains(t, token.Hash, strings.SplitN(plaintext, ".", 2)[1])

	user, err := f.svc.VerifyToken(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, editor, user.ID)

	var stored models.APIToken
	require.NoError(t, f.db.First(&stored, token.ID).Error)
	assert.NotNil(t, stored.LastUsedAt)
}

func TestVerifyTokenFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	editor := f.userOf(models.RoleEditor)

	plaintext, token, err := f.svc.IssueToken(ctx, editor, "ci", time.Hour)
	require.NoError(t, err)

	id, _, _ := strings.Cut(plaintext, ".")

	testCases := map[string]string{
		"empty":        "",
		"no secret":    id + ".",
		"no separator": id,
		"bad id":       "abc.def",
		"unknown id":   "999999.secret",
		"wrong secret": id + ".wrong",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.VerifyToken(ctx, input)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	past := time.Now().Add(-time.Minute)
	require.NoError(t, f.db.Model(token).UpdateColumn("expires_at", past).Error)
	_, err = f.svc.VerifyToken(ctx, plaintext)
	require.ErrorIs(t, err, ErrTokenExpired)

	require.NoError(t, f.db.Model(token).UpdateColumn("expires_at", nil).Error)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", editor).UpdateColumn("active", false).Error)
	_, err = f.svc.VerifyToken(ctx, plaintext)
	require.ErrorIs(t, err, ErrUserAccountDisabled)

	_, _, err = f.svc.IssueToken(ctx, 424242, "ghost", 0)
	require.ErrorIs(t, err, ErrUserNotFound)
}
