package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/accounts/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRBAC(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRBACAllowsListedRole(t *testing.T) {
	claims := &models.JWTClaims{AccountID: "a1", Role: models.RoleHOD}
	r := rbacRouter(claims, string(models.RoleHOD), string(models.RoleDirector))

	assert.Equal(t, http.StatusOK, doRBAC(r, "/accounts/other"))
}

func TestRBACRejectsUnlistedRole(t *testing.T) {
	claims := &models.JWTClaims{AccountID: "a1", Role: models.RoleStudent}
	r := rbacRouter(claims, string(models.RoleHOD))

	assert.Equal(t, http.StatusForbidden, doRBAC(r, "/accounts/other"))
}

func TestRBACSelfMatchesPathParam(t *testing.T) {
	claims := &models.JWTClaims{AccountID: "a1", Role: models.RoleStudent}
	r := rbacRouter(claims, SelfRole)

	assert.Equal(t, http.StatusOK, doRBAC(r, "/accounts/a1"))
	assert.Equal(t, http.StatusForbidden, doRBAC(r, "/accounts/a2"))
}

func TestRBACRequiresClaims(t *testing.T) {
	r := rbacRouter(nil, string(models.RoleHOD))

	assert.Equal(t, http.StatusUnauthorized, doRBAC(r, "/accounts/a1"))
}
