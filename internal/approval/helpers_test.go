package approval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/db/models"
)

type fixture struct {
	db      *gorm.DB
	auth    *auth.Service
	engine  *Engine
	team    models.Team
	members map[models.Role]models.Membership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	db, err := database.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), 1, 0)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	svc := auth.NewService(db, auth.NewRoleDefaults(db, 1<<20))
	require.NoError(t, svc.SeedCatalog(ctx, auth.Catalog()))
	require.NoError(t, svc.Defaults().Seed(ctx, auth.DefaultRolePermissions(), "system"))

	f := &fixture{db: db, auth: svc, engine: NewEngine(db, svc), members: map[models.Role]models.Membership{}}

	owner, err := svc.CreateUser(ctx, "owner", "owner@example.com", "", "")
	require.NoError(t, err)

	team, err := svc.CreateTeam(ctx, "acme", owner.ID)
	require.NoError(t, err)
	f.team = *team

	var m models.Membership
	require.NoError(t, db.Where("user_id = ? AND team_id = ?", owner.ID, team.ID).First(&m).Error)
	f.members[models.RoleOwner] = m

	for _, role := range models.BuiltinRoles()[1:] {
		f.member(t, string(role), role)
	}

	return f
}

// member adds a user with a built-in role. The first member of each role is remembered.
func (f *fixture) member(t *testing.T, name string, role models.Role) models.Membership {
	t.Helper()

	ctx := context.Background()

	u, err := f.auth.CreateUser(ctx, name, name+"@example.com", "", "")
	require.NoError(t, err)

	m, err := f.auth.AddMember(ctx, f.team.ID, u.ID, models.BuiltinRole{Role: role})
	require.NoError(t, err)

	if _, ok := f.members[role]; !ok {
		f.members[role] = *m
	}

	return *m
}

func (f *fixture) userOf(role models.Role) uint64 {
	return f.members[role].UserID
}

func (f *fixture) post(t *testing.T, author models.Role) models.Post {
	t.Helper()

	p := models.Post{TeamID: f.team.ID, AuthorID: f.userOf(author), Content: "hello", Status: models.PostDraft}
	require.NoError(t, f.db.Create(&p).Error)

	return p
}

func (f *fixture) workflow(t *testing.T, name string, steps ...StepInput) models.ApprovalWorkflow {
	t.Helper()

	wf, err := f.engine.CreateWorkflow(context.Background(), f.userOf(models.RoleOwner), f.team.ID,
		WorkflowInput{Name: name, Steps: steps})
	require.NoError(t, err)

	return *wf
}

func roleStep(order int, role models.Role, all bool) StepInput {
	return StepInput{Order: order, Role: role.Ptr(), RequireAllUsersInRole: all}
}

func userStep(order int, userID uint64) StepInput {
	return StepInput{Order: order, AssignedUserID: &userID}
}

func (f *fixture) assignments(t *testing.T, instanceID uint64) []models.ApprovalAssignment {
	t.Helper()

	var rows []models.ApprovalAssignment
	require.NoError(t, f.db.Where("instance_id = ?", instanceID).Order("step_order, id").Find(&rows).Error)

	return rows
}

func (f *fixture) reload(t *testing.T, inst *models.ApprovalInstance) models.ApprovalInstance {
	t.Helper()

	var got models.ApprovalInstance
	require.NoError(t, f.db.First(&got, inst.ID).Error)

	return got
}

func (f *fixture) postStatus(t *testing.T, postID uint64) models.PostStatus {
	t.Helper()

	var p models.Post
	require.NoError(t, f.db.First(&p, postID).Error)

	return p.Status
}

func (f *fixture) outboxTopics(t *testing.T) []string {
	t.Helper()

	var topics []string
	require.NoError(t, f.db.Model(&models.OutboxMessage{}).Order("created_at, id").Pluck("topic", &topics).Error)

	return topics
}
