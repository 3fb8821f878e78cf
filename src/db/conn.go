package db

import (
	"context"
	"regexp"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/utils"
	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/jpillora/backoff"
)

// How long NewConnPool keeps retrying before giving up on the database.
const connectTimeout = 30 * time.Second

// Creates a new connection to the Inkwell database.
// This connection is not safe for concurrent use.
func NewConn() *pgx.Conn {
	return NewConnWithConfig(config.PostgresConfig{})
}

func NewConnWithConfig(cfg config.PostgresConfig) *pgx.Conn {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		panic(oops.New(err, "failed to parse database config"))
	}
	for k, v := range cfg.RuntimeParams {
		pgcfg.RuntimeParams[k] = v
	}
	pgcfg.Tracer = newTracer(cfg)

	conn, err := pgx.ConnectConfig(context.Background(), pgcfg)
	if err != nil {
		panic(oops.New(err, "failed to connect to database"))
	}

	return conn
}

// Creates a connection pool for the Inkwell database, waiting for the
// database to come up if necessary. The resulting pool is safe for
// concurrent use.
func NewConnPool() *pgxpool.Pool {
	return NewConnPoolWithConfig(config.PostgresConfig{})
}

func NewConnPoolWithConfig(cfg config.PostgresConfig) *pgxpool.Pool {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		panic(oops.New(err, "failed to parse database config"))
	}

	pgcfg.MinConns = cfg.MinConn
	pgcfg.MaxConns = cfg.MaxConn
	for k, v := range cfg.RuntimeParams {
		pgcfg.ConnConfig.RuntimeParams[k] = v
	}
	pgcfg.ConnConfig.Tracer = newTracer(cfg)

	pool, err := pgxpool.NewWithConfig(context.Background(), pgcfg)
	if err != nil {
		panic(oops.New(err, "failed to create database connection pool"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := waitForDatabase(ctx, pool.Ping); err != nil {
		pool.Close()
		panic(oops.New(err, "database never became available"))
	}

	return pool
}

// Calls ping with exponential backoff until it succeeds or ctx expires.
func waitForDatabase(ctx context.Context, ping func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}

		wait := b.Duration()
		logging.Warn().Err(err).Dur("retryIn", wait).Float64("attempt", b.Attempt()).Msg("database not reachable yet")
		if sleepErr := utils.SleepContext(ctx, wait); sleepErr != nil {
			return err
		}
	}
}

func overrideDefaultConfig(cfg config.PostgresConfig) config.PostgresConfig {
	return config.PostgresConfig{
		User:          utils.OrDefault(cfg.User, config.Config.Postgres.User),
		Password:      utils.OrDefault(cfg.Password, config.Config.Postgres.Password),
		Hostname:      utils.OrDefault(cfg.Hostname, config.Config.Postgres.Hostname),
		Port:          utils.OrDefault(cfg.Port, config.Config.Postgres.Port),
		DbName:        utils.OrDefault(cfg.DbName, config.Config.Postgres.DbName),
		LogLevel:      utils.OrDefault(cfg.LogLevel, config.Config.Postgres.LogLevel),
		MinConn:       utils.OrDefault(cfg.MinConn, config.Config.Postgres.MinConn),
		MaxConn:       utils.OrDefault(cfg.MaxConn, config.Config.Postgres.MaxConn),
		RuntimeParams: cfg.RuntimeParams,
	}
}

func newTracer(cfg config.PostgresConfig) pgx.QueryTracer {
	return multiTracer{
		&tracelog.TraceLog{
			Logger:   zerologadapter.NewLogger(*logging.GlobalLogger()),
			LogLevel: cfg.LogLevel,
		},
		requestPerfTracer{},
	}
}

type multiTracer []pgx.QueryTracer

var _ pgx.QueryTracer = multiTracer{}

func (mt multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

var reQueryName = regexp.MustCompile("---- (.*)\n")

func GetQueryName(sql string) (string, bool) {
	m := reQueryName.FindStringSubmatch(sql)
	if m != nil {
		return m[1], true
	}
	return "", false
}

type perfBlockContextKeyType struct{}

var perfBlockContextKey = perfBlockContextKeyType{}

type requestPerfTracer struct{}

var _ pgx.QueryTracer = requestPerfTracer{}

func (pt requestPerfTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	p := perf.ExtractPerf(ctx)

	name := "Unknown query"
	if n, ok := GetQueryName(data.SQL); ok {
		name = n
	}
	b := p.StartBlock("SQL", name)
	return context.WithValue(ctx, perfBlockContextKey, b)
}

func (pt requestPerfTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if b, ok := ctx.Value(perfBlockContextKey).(*perf.BlockHandle); ok {
		b.End()
	}
}
