package config

import (
	"fmt"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Dev  Environment = "dev"
)

type InkwellConfig struct {
	Env         Environment
	Addr        string
	PrivateAddr string
	BaseUrl     string
	LogLevel    zerolog.Level
	Postgres    PostgresConfig
	Auth        AuthConfig
	Pictures    PicturesConfig
	DevConfig   DevConfig
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel tracelog.LogLevel
	MinConn  int32
	MaxConn  int32

	// Extra runtime parameters for every connection, e.g. search_path.
	RuntimeParams map[string]string
}

type AuthConfig struct {
	SessionSecret string
	CookieDomain  string
	CookieSecure  bool
}

type PicturesConfig struct {
	Key      string
	Secret   string
	Region   string
	Endpoint string
	Bucket   string

	MaxUploadBytes int64
}

type DevConfig struct {
	LiveTemplates bool
	LocalS3Dir    string
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}
