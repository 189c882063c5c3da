package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/config"
	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/governance/audit"
	"fieldops.io/fieldops/internal/pkg/metrics"
	"fieldops.io/fieldops/internal/store/memory"
	"fieldops.io/fieldops/internal/usecase"
)

const dashboardOrigin = "https://dispatch.fieldops.test"

type routerFixture struct {
	t          *testing.T
	router     *gin.Engine
	mem        *memory.Store
	tech       string
	dispatcher string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	mem := memory.New()
	srv := handlers.NewServer(handlers.ServerDeps{
		Services: usecase.NewServices(usecase.NewOrchestrator(mem, nil)),
		Trail:    audit.NewService(mem),
		Health:   mem,
	})
	cfg := &config.Config{
		Server:  config.ServerConfig{AllowedOrigins: []string{dashboardOrigin}, AllowCredentials: true},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte("router-test-signing-key-0123456789abcdef"),
		Issuer:     "fieldops",
		ExpiresIn:  time.Hour,
	}

	tech, _, err := middleware.GenerateToken(jwtCfg, "tech-7", "", "Theo Tech")
	require.NoError(t, err)
	dispatcher, _, err := middleware.GenerateToken(jwtCfg, "", "disp-1", "Dana Dispatch")
	require.NoError(t, err)

	return &routerFixture{
		t:          t,
		router:     newRouter(cfg, srv, jwtCfg, metrics.NewRegistry()),
		mem:        mem,
		tech:       tech,
		dispatcher: dispatcher,
	}
}

func (f *routerFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	f.t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func preflight(origin, method, path string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type,x-change-reason")
	return req
}

func TestRouter_PreflightFromDashboard(t *testing.T) {
	f := newRouterFixture(t)

	w := f.serve(preflight(dashboardOrigin, http.MethodPatch, "/api/v1/jobs/job-1"))

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, dashboardOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	require.Contains(t, allowed, strings.ToLower(middleware.ReasonHeader))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRouter_PreflightFromUnknownOriginRejected(t *testing.T) {
	f := newRouterFixture(t)

	w := f.serve(preflight("https://elsewhere.test", http.MethodDelete, "/api/v1/quotes/q-1"))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ChangeReasonAndTokenAttributeAudit(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Harbor Bakery"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.tech)
	req.Header.Set(middleware.ReasonHeader, "  walk-in customer  ")
	req.Header.Set("User-Agent", "fieldops-tech-app/2.3")
	w := f.serve(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	entries, err := f.mem.QueryAudit(req.Context(), domain.AuditQuery{EntityType: domain.KindClient})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, domain.AuditCreated, e.Action)
	require.NotNil(t, e.ActorTechID)
	require.Equal(t, "tech-7", *e.ActorTechID)
	require.Nil(t, e.ActorDispatcherID)
	require.NotNil(t, e.Reason)
	require.Equal(t, "walk-in customer", *e.Reason)
	require.NotNil(t, e.UserAgent)
	require.Equal(t, "fieldops-tech-app/2.3", *e.UserAgent)

	feed, err := f.mem.RecentActivity(req.Context(), 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "tech-7", *feed[0].ActorTechID)
}

func TestRouter_RouteAccess(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name  string
		token string
		path  string
		want  int
	}{
		{"liveness is public", "", "/api/v1/health/live", http.StatusOK},
		{"metrics is public", "", "/metrics", http.StatusOK},
		{"entities need a token", "", "/api/v1/jobs", http.StatusUnauthorized},
		{"technician lists jobs", f.tech, "/api/v1/jobs", http.StatusOK},
		{"technician cannot read audit logs", f.tech, "/api/v1/audit-logs", http.StatusForbidden},
		{"dispatcher reads audit logs", f.dispatcher, "/api/v1/audit-logs", http.StatusOK},
		{"technician cannot read log level", f.tech, "/api/v1/log/level", http.StatusForbidden},
		{"dispatcher reads log level", f.dispatcher, "/api/v1/log/level", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := f.serve(req)
			require.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestBuildCORSConfig(t *testing.T) {
	tests := []struct {
		name            string
		server          config.ServerConfig
		wantAllowAll    bool
		wantCredentials bool
		wantOrigins     []string
	}{
		{
			name:            "local dashboards when nothing configured",
			server:          config.ServerConfig{AllowCredentials: true},
			wantCredentials: true,
			wantOrigins:     defaultAllowedOrigins,
		},
		{
			name:            "wildcard and blanks dropped from the allowlist",
			server:          config.ServerConfig{AllowedOrigins: []string{"*", " ", dashboardOrigin}, AllowCredentials: true},
			wantCredentials: true,
			wantOrigins:     []string{dashboardOrigin},
		},
		{
			name:         "unsafe allow-all never sends credentials",
			server:       config.ServerConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true, UnsafeAllowAllOrigins: true},
			wantAllowAll: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildCORSConfig(&config.Config{Server: tt.server})
			require.Equal(t, tt.wantAllowAll, got.AllowAllOrigins)
			require.Equal(t, tt.wantCredentials, got.AllowCredentials)
			if tt.wantOrigins == nil {
				require.Empty(t, got.AllowOrigins)
			} else {
				require.Equal(t, tt.wantOrigins, got.AllowOrigins)
			}
			require.Contains(t, got.AllowHeaders, middleware.ReasonHeader)
			require.Contains(t, got.ExposeHeaders, middleware.RequestIDHeader)
		})
	}
}
