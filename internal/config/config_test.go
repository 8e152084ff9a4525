package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, StoreMongo, cfg.AccountStore)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerificationTTL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, ":3000", cfg.HTTPServer.Address)
	assert.Equal(t, MailLog, cfg.Mail.Driver)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"http://localhost:4200", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("ACCOUNT_STORE", "postgres")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("MAIL_DRIVER", "smtp")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.AccountStore)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, MailSMTP, cfg.Mail.Driver)
	assert.Equal(t, 2525, cfg.SMTPPort)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("ACCOUNT_STORE", "cassandra")

	_, err := Load("")
	require.ErrorContains(t, err, "unknown account store")
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
env: prod
account_store: mongo
auth:
  secret: from-file
  token_ttl: 2h
mail:
  driver: outbox
mongo:
  database: todos_test
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, MailOutbox, cfg.Mail.Driver)
	assert.Equal(t, "todos_test", cfg.Mongo.Database)
}

func TestMustLoad_MissingFilePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
