package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/postdeck/postdeck/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL, User: "postdeck", Password: "secret",
				Host: "db", Port: 3306, Name: "postdeck", Extras: "parseTime=true",
			},
			want: "postdeck:secret@tcp(db:3306)/postdeck?parseTime=true",
		},
		{
			name: "empty engine falls back to mysql",
			db:   config.DB{User: "u", Password: "p", Host: "h", Port: 1, Name: "n"},
			want: "u:p@tcp(h:1)/n?",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "postdeck", Password: "secret",
				Host: "db", Port: 5432, Name: "postdeck", Extras: "sslmode=disable",
			},
			want: "host=db port=5432 user=postdeck password=secret dbname=postdeck sslmode=disable",
		},
		{
			name: "postgres without extras",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "u", Password: "p", Host: "h", Port: 5432, Name: "n",
			},
			want: "host=h port=5432 user=u password=p dbname=n",
		},
		{
			name: "sqlite",
			db:   config.DB{GormEngine: config.EngineSQLite, Path: "/var/lib/postdeck.db"},
			want: "/var/lib/postdeck.db",
		},
		{
			name: "sqlite with pragmas",
			db:   config.DB{GormEngine: config.EngineSQLite, Path: "postdeck.db", Extras: "_pragma=foreign_keys(1)"},
			want: "postdeck.db?_pragma=foreign_keys(1)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{DB: tc.db}
			assert.Equal(t, tc.want, Create(cfg))
		})
	}
}
