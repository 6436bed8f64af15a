package approval

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/auth"
)

// TestReviewLocksInstanceBeforeAssignment checks the statement order a review issues on postgres.
func TestReviewLocksInstanceBeforeAssignment(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, PreferSimpleProtocol: true}), &gorm.Config{})
	require.NoError(t, err)

	assignment := sqlmock.NewRows([]string{"id", "instance_id", "team_id", "step_order", "status"}).
		AddRow(3, 2, 1, 1, "PENDING")
	lockedAssignment := sqlmock.NewRows([]string{"id", "instance_id", "team_id", "step_order", "status"}).
		AddRow(3, 2, 1, 1, "PENDING")
	instance := sqlmock.NewRows([]string{"id", "post_id", "workflow_id", "team_id", "status"}).
		AddRow(2, 5, 4, 1, "IN_PROGRESS")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "approval_assignments" WHERE "approval_assignments"\."id" = \$1 ORDER BY "approval_assignments"\."id" LIMIT \$2$`).
		WillReturnRows(assignment)
	mock.ExpectQuery(`SELECT \* FROM "approval_instances" WHERE "approval_instances"\."id" = \$1 ORDER BY "approval_instances"\."id" LIMIT \$2 FOR UPDATE`).
		WillReturnRows(instance)
	mock.ExpectQuery(`SELECT \* FROM "approval_assignments" WHERE "approval_assignments"\."id" = \$1 ORDER BY "approval_assignments"\."id" LIMIT \$2 FOR UPDATE`).
		WillReturnRows(lockedAssignment)
	mock.ExpectQuery(`SELECT \* FROM "memberships" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	engine := NewEngine(db, auth.NewService(db, auth.NewRoleDefaults(db, 1<<20)))

	_, err = engine.ReviewAssignment(context.Background(), 9, 3, true, "")
	require.ErrorIs(t, err, ErrAssignmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
