package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/adapter/cache"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

const strongPassword = "Str0ng!Pass"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) byTemplate(tpl domain.Template) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, msg := range n.sent {
		if msg.Template == tpl {
			out = append(out, msg)
		}
	}
	return out
}

// lastToken extracts the token query parameter from the newest link of tpl.
func (n *recordingNotifier) lastToken(t *testing.T, tpl domain.Template) string {
	t.Helper()
	msgs := n.byTemplate(tpl)
	require.NotEmpty(t, msgs, "no %s notification", tpl)
	link, ok := msgs[len(msgs)-1].Data["link"].(string)
	require.True(t, ok)
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

type fixture struct {
	cfg      config.Config
	clock    *clock
	store    *repository.MemoryStore
	tokens   *cache.MemoryTokenStore
	notifier *recordingNotifier
	node     *snowflake.Node
	jwt      *jwt.Generator
	auth     *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{
		JWTSecret:               "0123456789abcdef0123456789abcdef",
		JWTIssuer:               "hypertroq-test",
		AccessTokenTTL:          30 * time.Minute,
		RefreshTokenTTL:         7 * 24 * time.Hour,
		VerificationTokenTTL:    24 * time.Hour,
		PasswordResetTokenTTL:   time.Hour,
		EphemeralTokenRetention: 24 * time.Hour,
		AccountDeletionGrace:    30 * 24 * time.Hour,
		FrontendURL:             "https://app.hypertroq.test",
	}
	clk := &clock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}

	generator, err := jwt.NewGenerator([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	require.NoError(t, err)
	generator = generator.WithClock(clk.Now)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	tokens := cache.NewMemoryTokenStore(cfg.EphemeralTokenRetention)
	tokens.SetClock(clk.Now)
	notifier := &recordingNotifier{}

	auth := service.NewAuthService(store.Users(), store.Accounts(), tokens, notifier, node, generator, cfg, zap.NewNop()).
		WithClock(clk.Now)

	return &fixture{
		cfg:      cfg,
		clock:    clk,
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		node:     node,
		jwt:      generator,
		auth:     auth,
	}
}

// register signs up a new organization owner and returns the stored user.
func (f *fixture) register(t *testing.T, email string) domain.User {
	t.Helper()
	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:            email,
		Password:         strongPassword,
		FullName:         "Sam Lifter",
		OrganizationName: "Iron Gym",
	})
	require.NoError(t, err)
	user, err := f.store.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

func requireKind(t *testing.T, err error, kind service.ErrorKind, message string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind)
	if message != "" {
		require.Equal(t, message, svcErr.Message)
	}
}
