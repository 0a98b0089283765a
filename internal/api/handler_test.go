package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/items", nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c, w
}

func TestActorFromNoCompanyHeader(t *testing.T) {
	c, _ := testContext(t, nil)

	actor, ok := actorFrom(c)
	require.True(t, ok)
	assert.True(t, actor.IsSuper())
}

func TestActorFromCompanyHeader(t *testing.T) {
	c, _ := testContext(t, map[string]string{"X-Company-ID": "42"})

	actor, ok := actorFrom(c)
	require.True(t, ok)
	assert.Equal(t, int64(42), actor.CompanyID)
	assert.Equal(t, tenant.RoleCompanyAdmin, actor.Role)
}

func TestActorFromSuperRoleWithCompany(t *testing.T) {
	c, _ := testContext(t, map[string]string{
		"X-Company-ID": "42",
		"X-User-Role":  "super_admin",
	})

	actor, ok := actorFrom(c)
	require.True(t, ok)
	assert.Equal(t, int64(42), actor.CompanyID)
	assert.True(t, actor.IsSuper())
}

func TestActorFromMalformedCompanyHeader(t *testing.T) {
	c, w := testContext(t, map[string]string{"X-Company-ID": "not-a-number"})

	_, ok := actorFrom(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "X-Company-ID")
}

func TestActorFromUnknownRoleDowngrades(t *testing.T) {
	c, _ := testContext(t, map[string]string{
		"X-Company-ID": "7",
		"X-User-Role":  "intern",
	})

	actor, ok := actorFrom(c)
	require.True(t, ok)
	assert.Equal(t, tenant.RoleCompanyAdmin, actor.Role)
	assert.False(t, actor.IsSuper())
}
