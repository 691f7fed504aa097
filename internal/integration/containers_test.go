//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/couchcryptid/forecast-etl/internal/config"
)

const (
	testDatabase = "weather"
	testUser     = "etl"
	testPassword = "etl-secret"
)

// startPostgres runs a throwaway Postgres and returns the settings the ETL
// uses to reach it.
func startPostgres(ctx context.Context, t *testing.T) config.DatabaseConfig {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(testDatabase),
		tcpostgres.WithUsername(testUser),
		tcpostgres.WithPassword(testPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:             host,
		Port:             port.Int(),
		Name:             testDatabase,
		User:             testUser,
		Password:         testPassword,
		SSLMode:          "disable",
		MaxConns:         2,
		StatementTimeout: 10 * time.Second,
	}
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("forecast-etl-test"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// queryConn opens a direct connection for assertions against the table.
func queryConn(ctx context.Context, t *testing.T, db config.DatabaseConfig) *pgx.Conn {
	t.Helper()
	db.MaxConns = 0 // pool_max_conns is only understood by pgxpool
	conn, err := pgx.Connect(ctx, db.ConnString())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })
	return conn
}
