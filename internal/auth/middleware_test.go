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

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(s Signer) *gin.Engine {
	r := gin.New()
	r.GET("/me", Bearer(s), func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.String(http.StatusOK, claims.Subject)
	})
	r.GET("/admin", Bearer(s), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearer(t *testing.T) {
	s := NewSigner("test-key", "clubhub", time.Minute, time.Hour)
	r := newTestRouter(s)
	pair, err := s.Issue("user-1", "student")
	require.NoError(t, err)

	w := doGet(r, "/me", pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", pair.RefreshToken).Code)
}

func TestRequireRole(t *testing.T) {
	s := NewSigner("test-key", "clubhub", time.Minute, time.Hour)
	r := newTestRouter(s)

	student, err := s.Issue("user-1", "student")
	require.NoError(t, err)
	admin, err := s.Issue("user-2", "admin")
	require.NoError(t, err)

	w := doGet(r, "/admin", student.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Access denied"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, doGet(r, "/admin", admin.AccessToken).Code)
}
