package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  host: localhost
  port: 5432
  user: app
  password: secret
  name: flights
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout())
	assert.Equal(t, 5, cfg.Booking.PNRAttempts)
	assert.Equal(t, "Asia/Kolkata", cfg.Booking.SearchTimeZone)
	assert.Equal(t, time.Minute, cfg.Worker.SweepInterval())
	assert.Equal(t, 50*time.Second, cfg.Worker.SweepLease())
	assert.Equal(t, ":9100", cfg.Worker.MetricsAddress)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := Parse([]byte(`
database:
  password: from-file
kafka:
  brokers: ["local:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
}

func TestParse_InvalidPort(t *testing.T) {
	t.Setenv("DATABASE_PORT", "abc")

	_, err := Parse([]byte(`{}`))
	assert.Error(t, err)
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "flights", SSLMode: "disable"}

	assert.Equal(t, "pgx5://app:p%40ss@db:5432/flights?sslmode=disable", d.URL("pgx5"))
	assert.Equal(t, "host=db port=5432 user=app password=p@ss dbname=flights sslmode=disable", d.DSN())
}
