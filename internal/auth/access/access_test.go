package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"leadlift_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()

	assert.True(t, p.Allows(RoleAdmin, ManageSettings))
	assert.True(t, p.Allows(RoleManager, CreateUsers))
	assert.False(t, p.Allows(RoleManager, DeleteUsers))
	assert.True(t, p.Allows(RoleUser, ViewAnalytics))
	assert.False(t, p.Allows(RoleUser, ManageClients))
	assert.False(t, p.Allows("ghost", ViewAnalytics))

	assert.Equal(t, []string{RoleAdmin, RoleManager, RoleUser}, p.Roles())
	assert.True(t, p.AllowsAny([]string{"ghost", RoleUser}, ViewAnalytics))
}

func TestPermissionsReturnsCopy(t *testing.T) {
	p := Default()

	perms := p.Permissions(RoleUser)
	require.NotEmpty(t, perms)
	perms[0] = ManageSettings

	assert.False(t, p.Allows(RoleUser, ManageSettings))
}

func TestLoadRejectsEmptyPolicy(t *testing.T) {
	_, err := Load([]byte("roles: {}\n"))
	assert.Error(t, err)

	_, err = Load([]byte("roles: [\n"))
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newEngine := func(roles ...string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if roles != nil {
				c.Set(httpkit.ContextUserIDKey, uuid.New())
				c.Set(httpkit.ContextRolesKey, roles)
			}
			c.Next()
		})
		r.GET("/guarded", Require(DeleteUsers), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	cases := []struct {
		name   string
		roles  []string
		status int
	}{
		{name: "anonymous", roles: nil, status: http.StatusUnauthorized},
		{name: "manager", roles: []string{RoleManager}, status: http.StatusForbidden},
		{name: "admin", roles: []string{RoleAdmin}, status: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newEngine(tc.roles...).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
