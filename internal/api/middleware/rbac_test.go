package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"fieldops.io/fieldops/internal/domain"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor *domain.ActorContext
		roles []Role
		want  int
	}{
		{"dispatcher admitted", &domain.ActorContext{DispatcherID: "d-1"}, []Role{RoleDispatcher}, http.StatusOK},
		{"technician denied", &domain.ActorContext{TechID: "t-1"}, []Role{RoleDispatcher}, http.StatusForbidden},
		{"technician admitted by either", &domain.ActorContext{TechID: "t-1"}, []Role{RoleDispatcher, RoleTechnician}, http.StatusOK},
		{"no actor denied", nil, []Role{RoleTechnician}, http.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tc.actor != nil {
					c.Request = c.Request.WithContext(WithActor(c.Request.Context(), *tc.actor))
				}
				c.Next()
			})
			router.GET("/audit-logs", RequireRole(tc.roles...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs", nil))
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
