package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-booking-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func roleRouter(role string, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func getStatus(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if got := getStatus(roleRouter(RoleSuperAdmin, RoleOwner)); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if got := getStatus(roleRouter(RoleDispatcher, RoleOwner, RoleDispatcher)); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
}

func TestRequireAnyRole_OtherRoleDenied(t *testing.T) {
	if got := getStatus(roleRouter(RoleAnalyst, RoleOwner, RoleDispatcher)); got != 403 {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestRequireAnyRole_MissingRoleUnauthorized(t *testing.T) {
	if got := getStatus(roleRouter("", RoleOwner)); got != 401 {
		t.Fatalf("expected 401, got %d", got)
	}
}
