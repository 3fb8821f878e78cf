package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the settings for the whole process. The defaults below are
// suitable for local development; everything can be overridden from the
// environment or from a .env file in the working directory.
var Config = InkwellConfig{
	Env:         Dev,
	Addr:        ":9001",
	PrivateAddr: ":9002",
	BaseUrl:     "http://localhost:9001",
	LogLevel:    zerolog.InfoLevel,
	Postgres: PostgresConfig{
		User:     "inkwell",
		Password: "password",
		Hostname: "localhost",
		Port:     5432,
		DbName:   "inkwell",
		LogLevel: tracelog.LogLevelWarn,
		MinConn:  2,
		MaxConn:  10,
	},
	Auth: AuthConfig{
		SessionSecret: "",
		CookieDomain:  "",
		CookieSecure:  false,
	},
	Pictures: PicturesConfig{
		Key:            "dummy",
		Secret:         "dummy",
		Region:         "dummy",
		Endpoint:       "http://localhost:9003",
		Bucket:         "inkwell-pictures",
		MaxUploadBytes: 10 * 1024 * 1024,
	},
	DevConfig: DevConfig{
		LiveTemplates: false,
		LocalS3Dir:    "./tmp/s3",
	},
}

func init() {
	// A missing .env file is fine; production sets real environment variables.
	_ = godotenv.Load()
	LoadFromEnv(&Config, os.Getenv)
}

// LoadFromEnv overrides fields of cfg with any INKWELL_* variables that
// getenv knows about.
func LoadFromEnv(cfg *InkwellConfig, getenv func(string) string) {
	str := func(name string, dest *string) {
		if v := getenv(name); v != "" {
			*dest = v
		}
	}
	integer := func(name string, dest *int) {
		if v, err := strconv.Atoi(getenv(name)); err == nil {
			*dest = v
		}
	}
	boolean := func(name string, dest *bool) {
		if v, err := strconv.ParseBool(getenv(name)); err == nil {
			*dest = v
		}
	}

	var env string
	str("INKWELL_ENV", &env)
	if env != "" {
		cfg.Env = Environment(strings.ToLower(env))
	}
	str("INKWELL_ADDR", &cfg.Addr)
	str("INKWELL_PRIVATE_ADDR", &cfg.PrivateAddr)
	str("INKWELL_BASE_URL", &cfg.BaseUrl)
	cfg.BaseUrl = strings.TrimSuffix(cfg.BaseUrl, "/")

	if lvl, err := zerolog.ParseLevel(getenv("INKWELL_LOG_LEVEL")); err == nil && getenv("INKWELL_LOG_LEVEL") != "" {
		cfg.LogLevel = lvl
	}

	str("INKWELL_DB_USER", &cfg.Postgres.User)
	str("INKWELL_DB_PASSWORD", &cfg.Postgres.Password)
	str("INKWELL_DB_HOST", &cfg.Postgres.Hostname)
	integer("INKWELL_DB_PORT", &cfg.Postgres.Port)
	str("INKWELL_DB_NAME", &cfg.Postgres.DbName)
	if lvl, err := tracelog.LogLevelFromString(getenv("INKWELL_DB_LOG_LEVEL")); err == nil {
		cfg.Postgres.LogLevel = lvl
	}

	str("INKWELL_SESSION_SECRET", &cfg.Auth.SessionSecret)
	str("INKWELL_COOKIE_DOMAIN", &cfg.Auth.CookieDomain)
	boolean("INKWELL_COOKIE_SECURE", &cfg.Auth.CookieSecure)

	str("INKWELL_S3_KEY", &cfg.Pictures.Key)
	str("INKWELL_S3_SECRET", &cfg.Pictures.Secret)
	str("INKWELL_S3_REGION", &cfg.Pictures.Region)
	str("INKWELL_S3_ENDPOINT", &cfg.Pictures.Endpoint)
	str("INKWELL_S3_BUCKET", &cfg.Pictures.Bucket)

	boolean("INKWELL_LIVE_TEMPLATES", &cfg.DevConfig.LiveTemplates)
	str("INKWELL_LOCAL_S3_DIR", &cfg.DevConfig.LocalS3Dir)
}
