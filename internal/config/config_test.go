package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV_FILE_PATH", "does-not-exist.env")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "zen8labs_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, UsersBackendMongo, cfg.Users.Backend)

	// defaults: 1000s access tokens, 30 day sessions, 5 devices
	require.Equal(t, 1000*time.Second, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.Session.RefreshTTL)
	require.Equal(t, 5, cfg.Session.MaxSessionsPerUser)
	require.Equal(t, 10, cfg.Users.BcryptCost)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV_FILE_PATH", "does-not-exist.env")
	t.Setenv("USERS_BACKEND", "Memory")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "120")
	t.Setenv("SESSION_REFRESH_TTL", "3600")
	t.Setenv("SESSION_MAX_PER_USER", "2")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, UsersBackendMemory, cfg.Users.Backend)
	require.Equal(t, 2*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, time.Hour, cfg.Session.RefreshTTL)
	require.Equal(t, 2, cfg.Session.MaxSessionsPerUser)
	require.True(t, cfg.RateLimit.Enabled)
	require.InDelta(t, 0.5, cfg.RateLimit.RPS, 1e-9)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("ENV_FILE_PATH", "does-not-exist.env")
	t.Setenv("USERS_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Environment: "development"},
			Users:   UsersConfig{Backend: UsersBackendMemory},
			JWT:     JWTConfig{Secret: "x", AccessTokenTTL: time.Minute},
			Session: SessionConfig{RefreshTTL: time.Hour, MaxSessionsPerUser: 5},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Users.Backend = UsersBackendPostgres
	require.ErrorContains(t, c.Validate(), "POSTGRES_URL")

	c = base()
	c.Users.Backend = "sqlite"
	require.ErrorContains(t, c.Validate(), "unknown USERS_BACKEND")

	c = base()
	c.Server.Environment = "production"
	require.ErrorContains(t, c.Validate(), "not allowed in production")

	c = base()
	c.Session.MaxSessionsPerUser = 0
	require.ErrorContains(t, c.Validate(), "SESSION_MAX_PER_USER")
}
