package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/", Bearer(testKey, testIssuer))
	if role != "" {
		grp = grp.Group("/", RequireRole(role))
	}
	grp.GET("/whoami", func(c *gin.Context) {
		claims, _ := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject, "role": claims.Role})
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAcceptsValidToken(t *testing.T) {
	token, _, err := Issue("s1", RoleStudent, "Jane Doe", "", "", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	w := doGet(newProtectedRouter(""), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sub":"s1"`)
}

func TestBearerRejectsMissingOrBadToken(t *testing.T) {
	r := newProtectedRouter("")

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "not-a-token").Code)
}

func TestRequireRole(t *testing.T) {
	studentToken, _, err := Issue("s1", RoleStudent, "", "", "", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	adminToken, _, err := Issue("a1", RoleAdmin, "", "", "", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	adminOnly := newProtectedRouter(RoleAdmin)
	assert.Equal(t, http.StatusForbidden, doGet(adminOnly, studentToken).Code)
	assert.Equal(t, http.StatusOK, doGet(adminOnly, adminToken).Code)
}
