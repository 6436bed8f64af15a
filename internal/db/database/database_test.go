package database

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/config"
	"github.com/postdeck/postdeck/internal/db/models"
)

func TestDialector(t *testing.T) {
	testCases := []struct {
		engine string
		want   string
		err    error
	}{
		{engine: config.EngineMySQL, want: "mysql"},
		{engine: "", want: "mysql"},
		{engine: config.EnginePostgres, want: "postgres"},
		{engine: config.EngineSQLite, want: "sqlite"},
		{engine: "oracle", err: config.ErrUnknownGormEngine},
	}

	for _, tc := range testCases {
		t.Run(tc.engine, func(t *testing.T) {
			cfg := &config.Config{DB: config.DB{GormEngine: tc.engine, Path: "x.db"}}

			d, err := Dialector(cfg)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Name())
		})
	}
}

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		GormEngine:   config.EngineSQLite,
		Path:         filepath.Join(t.TempDir(), "postdeck.db"),
		MaxOpenConns: 1,
	}}

	db, err := Open(cfg)
	require.NoError(t, err)

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestForUpdateSkippedOnSQLite(t *testing.T) {
	cfg := &config.Config{DB: config.DB{GormEngine: config.EngineSQLite, Path: filepath.Join(t.TempDir(), "t.db")}}

	db, err := Open(cfg)
	require.NoError(t, err)

	stmt := ForUpdate(db.Session(&gorm.Session{DryRun: true})).First(&models.Post{}, 1).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestForUpdatePostgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, PreferSimpleProtocol: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2 FOR UPDATE`)).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "status"}).AddRow(7, 1, "DRAFT"))

	var post models.Post
	require.NoError(t, ForUpdate(db).First(&post, 7).Error)
	assert.Equal(t, models.PostDraft, post.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
