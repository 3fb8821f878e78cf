package config

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnv(t *testing.T) {
	env := map[string]string{
		"INKWELL_ENV":            "LIVE",
		"INKWELL_BASE_URL":       "https://inkwell.test/",
		"INKWELL_LOG_LEVEL":      "debug",
		"INKWELL_DB_PORT":        "6543",
		"INKWELL_DB_LOG_LEVEL":   "error",
		"INKWELL_SESSION_SECRET": "hunter2",
		"INKWELL_COOKIE_SECURE":  "true",
		"INKWELL_DB_MAX_CONN":    "not read",
	}
	getenv := func(name string) string { return env[name] }

	cfg := InkwellConfig{
		Addr: ":1234",
		Postgres: PostgresConfig{
			Port:     5432,
			Hostname: "db",
		},
	}
	LoadFromEnv(&cfg, getenv)

	assert.Equal(t, Live, cfg.Env)
	assert.Equal(t, "https://inkwell.test", cfg.BaseUrl)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Equal(t, tracelog.LogLevelError, cfg.Postgres.LogLevel)
	assert.Equal(t, "hunter2", cfg.Auth.SessionSecret)
	assert.True(t, cfg.Auth.CookieSecure)

	t.Run("unset variables keep defaults", func(t *testing.T) {
		assert.Equal(t, ":1234", cfg.Addr)
		assert.Equal(t, "db", cfg.Postgres.Hostname)
	})
}

func TestDSN(t *testing.T) {
	cfg := PostgresConfig{User: "u", Password: "p", Hostname: "h", Port: 1, DbName: "d"}
	assert.Equal(t, "user=u password=p host=h port=1 dbname=d", cfg.DSN())
}
