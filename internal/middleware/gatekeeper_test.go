package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatqpt/chatqpt/internal/config"
	"github.com/chatqpt/chatqpt/internal/ctxkeys"
	"github.com/chatqpt/chatqpt/internal/db"
	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/repository"
	"github.com/chatqpt/chatqpt/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "development",
		SessionCookieName:    "chat-qpt-auth-cookie",
		DefaultLoginRedirect: "/chat",
		PublicRoutes:         []string{"/$", "/auth/verify-email$", "/terms", "/privacy"},
		AuthRoutes:           []string{"/auth/login", "/auth/forgot-password", "/auth/reset-password"},
		APIAuthPrefix:        []string{"/api/auth(.*)"},
	}
}

func testClassifier(t *testing.T) *RouteClassifier {
	t.Helper()
	cfg := testConfig()
	c, err := NewRouteClassifier(cfg.PublicRoutes, cfg.AuthRoutes, cfg.APIAuthPrefix)
	require.NoError(t, err)
	return c
}

func TestRouteClassifier(t *testing.T) {
	c := testClassifier(t)

	cases := []struct {
		path string
		want RouteClass
	}{
		{"/", RoutePublic},
		{"/terms", RoutePublic},
		{"/terms/2024", RoutePublic},
		{"/privacy", RoutePublic},
		{"/auth/verify-email", RoutePublic},
		{"/auth/login", RouteAuthOnly},
		{"/auth/forgot-password", RouteAuthOnly},
		{"/auth/reset-password", RouteAuthOnly},
		{"/api/auth", RouteAPIAuth},
		{"/api/auth/login", RouteAPIAuth},
		{"/api/auth/google/callback", RouteAPIAuth},
		{"/chat", RouteProtected},
		{"/settings", RouteProtected},
		{"/api/chat", RouteProtected},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.path))
		})
	}
}

func TestRouteClassifierExactAnchors(t *testing.T) {
	c := testClassifier(t)

	// `/$` matches only the root, not every path starting with /
	assert.Equal(t, RouteProtected, c.Classify("/chat"))
	// `/auth/verify-email$` does not cover subpaths
	assert.Equal(t, RouteProtected, c.Classify("/auth/verify-email/extra"))
	// prefix patterns do cover subpaths
	assert.Equal(t, RouteAuthOnly, c.Classify("/auth/login/sso"))
}

func TestRouteClassifierRejectsBadPattern(t *testing.T) {
	_, err := NewRouteClassifier([]string{"/("}, nil, nil)
	assert.Error(t, err)
}

type gatekeeperFixture struct {
	cfg      *config.Config
	sessions *service.SessionService
	users    repository.UserRepository
	handler  http.Handler

	// filled in by the inner handler when it runs
	served      bool
	ctxUser     *model.User
	ctxSession  *model.Session
	sessionRepo repository.SessionRepository
}

func newGatekeeperFixture(t *testing.T, ttl time.Duration) *gatekeeperFixture {
	t.Helper()

	conn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	f := &gatekeeperFixture{
		cfg:         testConfig(),
		users:       repository.NewUserRepository(database),
		sessionRepo: repository.NewSessionRepository(database),
	}
	f.sessions = service.NewSessionService(f.sessionRepo, f.users, f.cfg.SessionCookieName, ttl, false)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.served = true
		f.ctxUser = ctxkeys.User(r.Context())
		f.ctxSession = ctxkeys.Session(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	f.handler = Gatekeeper(f.cfg, testClassifier(t), f.sessions)(inner)
	return f
}

func (f *gatekeeperFixture) signIn(t *testing.T) *model.Session {
	t.Helper()
	hash := "x"
	require.NoError(t, f.users.Create(&model.User{ID: "u1", Email: "a@example.com", PasswordHash: &hash}))
	session, err := f.sessions.Create("u1")
	require.NoError(t, err)
	return session
}

func (f *gatekeeperFixture) get(path string, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: f.cfg.SessionCookieName, Value: sessionID})
	}
	rr := httptest.NewRecorder()
	f.served = false
	f.ctxUser = nil
	f.ctxSession = nil
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestGatekeeperPublicRoutes(t *testing.T) {
	f := newGatekeeperFixture(t, 0)

	rr := f.get("/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.served)
	assert.Nil(t, f.ctxUser)

	rr = f.get("/api/auth/login", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.served)
}

func TestGatekeeperProtectedRoutes(t *testing.T) {
	t.Run("signed out is sent to login with a callback", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)

		rr := f.get("/chat", "")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth/login?callbackUrl=%2Fchat", rr.Header().Get("Location"))
		assert.False(t, f.served)
	})

	t.Run("callback preserves the query string", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)

		rr := f.get("/settings?tab=profile", "")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth/login?callbackUrl=%2Fsettings%3Ftab%3Dprofile", rr.Header().Get("Location"))
	})

	t.Run("signed in passes through with context", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)
		session := f.signIn(t)

		rr := f.get("/chat", session.ID)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, f.served)
		require.NotNil(t, f.ctxUser)
		assert.Equal(t, "a@example.com", f.ctxUser.Email)
		require.NotNil(t, f.ctxSession)
		assert.Equal(t, session.ID, f.ctxSession.ID)
	})

	t.Run("stale cookie is cleared and redirected", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)

		rr := f.get("/chat", "stale-session-id")
		assert.Equal(t, http.StatusSeeOther, rr.Code)

		var cleared *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == f.cfg.SessionCookieName {
				cleared = c
			}
		}
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Equal(t, -1, cleared.MaxAge)
	})
}

func TestGatekeeperAuthOnlyRoutes(t *testing.T) {
	t.Run("signed out may visit", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)

		rr := f.get("/auth/login", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, f.served)
	})

	t.Run("signed in bounces to the app", func(t *testing.T) {
		f := newGatekeeperFixture(t, 0)
		session := f.signIn(t)

		rr := f.get("/auth/login", session.ID)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/chat", rr.Header().Get("Location"))
		assert.False(t, f.served)
	})
}

func TestGatekeeperRollsExpiringSessions(t *testing.T) {
	f := newGatekeeperFixture(t, time.Hour)
	session := f.signIn(t)

	// push the session close to expiry so validation rolls it
	require.NoError(t, f.sessionRepo.UpdateExpiry(session.ID, time.Now().Add(10*time.Minute)))

	rr := f.get("/chat", session.ID)
	assert.Equal(t, http.StatusOK, rr.Code)

	var reissued *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == f.cfg.SessionCookieName {
			reissued = c
		}
	}
	require.NotNil(t, reissued)
	assert.Equal(t, session.ID, reissued.Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), reissued.Expires, time.Minute)
}
