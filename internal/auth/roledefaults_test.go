package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postdeck/postdeck/internal/db/controller/setting"
	"github.com/postdeck/postdeck/internal/db/models"
)

func TestSetRolePermissionsInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.userOf(models.RoleViewer)

	// warm the cache
	assert.False(t, f.svc.Can(ctx, viewer, f.team.ID, PermContentEdit))

	changes, err := f.svc.Defaults().SetRolePermissions(ctx, models.RoleViewer,
		[]string{PermContentView, PermContentEdit}, "alice")
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Role: models.RoleViewer, Code: PermContentEdit, Action: models.AuditActionAdd},
		{Role: models.RoleViewer, Code: PermAnalyticsView, Action: models.AuditActionRemove},
	}, changes)

	assert.True(t, f.svc.Can(ctx, viewer, f.team.ID, PermContentEdit))
	assert.False(t, f.svc.Can(ctx, viewer, f.team.ID, PermAnalyticsView))

	entries, err := f.svc.Defaults().Audit(ctx, models.RoleViewer, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, PermAnalyticsView, entries[0].PermissionCode)
	assert.Equal(t, models.AuditActionRemove, entries[0].Action)
}

func TestSetRolePermissionsNoChange(t *testing.T) {
	f := newFixture(t)

	changes, err := f.svc.Defaults().SetRolePermissions(context.Background(), models.RoleViewer,
		DefaultRolePermissions()[models.RoleViewer], "alice")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSetRolePermissionsRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Defaults().SetRolePermissions(ctx, models.RoleOwner, nil, "alice")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.svc.Defaults().SetRolePermissions(ctx, models.RoleViewer, []string{"bogus.code"}, "alice")
	require.ErrorIs(t, err, ErrPermissionNotFound)

	// nothing was written
	codes, err := f.svc.Defaults().Permissions(ctx, f.db, models.RoleViewer)
	require.NoError(t, err)
	assert.ElementsMatch(t, DefaultRolePermissions()[models.RoleViewer], codes)
}

func TestSeedKeepsConfiguredRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Defaults().SetRolePermissions(ctx, models.RoleEditor, []string{PermContentView}, "alice")
	require.NoError(t, err)

	require.NoError(t, f.svc.Defaults().Seed(ctx, DefaultRolePermissions(), "system"))

	codes, err := f.svc.Defaults().Permissions(ctx, f.db, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, []string{PermContentView}, codes)
}

func TestEmptyRoleDefaultsAreCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Defaults().SetRolePermissions(ctx, models.RoleViewer, nil, "alice")
	require.NoError(t, err)

	for range 2 {
		codes, err := f.svc.Defaults().Permissions(ctx, f.db, models.RoleViewer)
		require.NoError(t, err)
		assert.Empty(t, codes)
	}
}

func TestRoleDefaultsWriteFromOtherStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.userOf(models.RoleViewer)

	// the running service has the viewer defaults cached
	require.True(t, f.svc.Can(ctx, viewer, f.team.ID, PermAnalyticsView))

	// a second store on the same database, as the roles command builds it
	cli := NewService(f.db, NewRoleDefaults(f.db, testCacheBytes))
	_, err := cli.Defaults().SetRolePermissions(ctx, models.RoleViewer, []string{PermContentView}, "cli")
	require.NoError(t, err)

	assert.False(t, cli.Can(ctx, viewer, f.team.ID, PermAnalyticsView))
	assert.False(t, f.svc.Can(ctx, viewer, f.team.ID, PermAnalyticsView), "revoked default still resolved")
	assert.True(t, f.svc.Can(ctx, viewer, f.team.ID, PermContentView))

	// a no-op write keeps the version, so cached entries stay valid
	before, err := setting.GetString(f.db, VersionSetting, "")
	require.NoError(t, err)
	require.NotEmpty(t, before)

	_, err = cli.Defaults().SetRolePermissions(ctx, models.RoleViewer, []string{PermContentView}, "cli")
	require.NoError(t, err)

	after, err := setting.GetString(f.db, VersionSetting, "")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStaleLoadIsNotServedAfterWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	defaults := f.svc.Defaults()

	version, err := setting.GetString(f.db, VersionSetting, "")
	require.NoError(t, err)

	// a reader that loaded the old rows stores them after the write committed
	old, err := loadRolePermissions(ctx, f.db, models.RoleViewer)
	require.NoError(t, err)

	_, err = defaults.SetRolePermissions(ctx, models.RoleViewer, []string{PermContentView}, "alice")
	require.NoError(t, err)

	defaults.cache.Set(cacheKey(version, models.RoleViewer), []byte(strings.Join(old, "\n")))

	codes, err := defaults.Permissions(ctx, f.db, models.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, []string{PermContentView}, codes)
}
