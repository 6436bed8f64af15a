package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/db/models"
)

const testCacheBytes = 1 << 20

type fixture struct {
	db      *gorm.DB
	svc     *Service
	team    models.Team
	members map[models.Role]models.Membership
}

// setupTestDB opens a migrated sqlite database in a temp dir.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), 1, 0)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

// newFixture seeds the catalog and role defaults and creates one team with one member per built-in role.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db, NewRoleDefaults(db, testCacheBytes))

	require.NoError(t, svc.SeedCatalog(ctx, Catalog()))
	require.NoError(t, svc.Defaults().Seed(ctx, DefaultRolePermissions(), "system"))

	f := &fixture{db: db, svc: svc, members: map[models.Role]models.Membership{}}

	owner := f.user(t, "owner")
	team, err := svc.CreateTeam(ctx, "acme", owner.ID)
	require.NoError(t, err)
	f.team = *team

	var ownerMembership models.Membership
	require.NoError(t, db.Where("user_id = ? AND team_id = ?", owner.ID, team.ID).First(&ownerMembership).Error)
	f.members[models.RoleOwner] = ownerMembership

	for _, role := range models.BuiltinRoles()[1:] {
		f.member(t, string(role), models.BuiltinRole{Role: role})
	}

	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()

	u, err := f.svc.CreateUser(context.Background(), name, name+"@example.com", "", "")
	require.NoError(t, err)

	return u
}

func (f *fixture) member(t *testing.T, name string, basis models.AuthorizationBasis) models.Membership {
	t.Helper()

	u := f.user(t, name)
	m, err := f.svc.AddMember(context.Background(), f.team.ID, u.ID, basis)
	require.NoError(t, err)

	if b, ok := basis.(models.BuiltinRole); ok {
		if _, exists := f.members[b.Role]; !exists {
			f.members[b.Role] = *m
		}
	}

	return *m
}

func (f *fixture) userOf(role models.Role) uint64 {
	return f.members[role].UserID
}
