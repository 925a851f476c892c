package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hypertroq")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SMTP_HOST", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.VerificationTokenTTL)
	require.Equal(t, time.Hour, cfg.PasswordResetTokenTTL)
	require.Equal(t, 587, cfg.Mail.Port)
	require.False(t, cfg.Mail.Enabled())
	require.Equal(t, 1.0, cfg.TraceSampleRatio)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hypertroq")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("FRONTEND_URL", "https://app.hypertroq.test/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("SMTP_HOST", "smtp.test")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, "https://app.hypertroq.test", cfg.FrontendURL)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.Mail.Enabled())
	require.Equal(t, 2525, cfg.Mail.Port)
}

func TestLoadTraceSampleRatio(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hypertroq")
	t.Setenv("JWT_SECRET", testSecret)

	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "0.25", want: 0.25},
		{raw: " 0.5 ", want: 0.5},
		{raw: "-1", want: 0},
		{raw: "3", want: 1},
		{raw: "often", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", tt.raw)
			cfg, err := config.Load()
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.TraceSampleRatio)
		})
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hypertroq")
	t.Setenv("JWT_SECRET", "short")

	_, err := config.Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := config.Load()
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRequiresAdminPair(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hypertroq")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ADMIN_EMAIL", "admin@hypertroq.test")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := config.Load()
	require.ErrorContains(t, err, "ADMIN_EMAIL")
}
