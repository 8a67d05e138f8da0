package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

func newEngine(pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("tekuteku", cookie.NewStore([]byte("test-secret"))))
	r.Use(DeviceSession())
	r.Use(pre...)
	return r
}

func TestSecurityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://maps.googleapis.com")
}

func TestDeviceSessionKeepsTheDeviceID(t *testing.T) {
	r := newEngine()
	r.GET("/device", func(c *gin.Context) { c.String(http.StatusOK, GetDeviceID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device", nil))
	first := w.Body.String()
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/device", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, w.Body.String())
}

func TestActorFromContext(t *testing.T) {
	user := &models.User{ID: uuid.New(), IsAdmin: true}
	r := newEngine(func(c *gin.Context) {
		SetUser(c, user)
		c.Next()
	}, ActorContext())

	var fromGin, fromCtx models.Actor
	r.GET("/", func(c *gin.Context) {
		fromGin = ActorFromContext(c)
		fromCtx = models.ActorFrom(c.Request.Context())
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, user.ID, fromGin.UserID)
	assert.NotEmpty(t, fromGin.DeviceID)
	assert.True(t, fromGin.IsAdmin)
	assert.Equal(t, fromGin, fromCtx)
}

func TestRequireAdmin(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	t.Run("anonymous gets the login hint", func(t *testing.T) {
		r := newEngine()
		r.POST("/admin", RequireAdmin(), ok)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("HX-Request", "true")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, LoginPath, w.Header().Get("HX-Redirect"))
		assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
	})

	t.Run("signed-in non-admin is forbidden", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			SetUser(c, &models.User{ID: uuid.New()})
			c.Next()
		})
		r.POST("/admin", RequireAdmin(), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("verified device passes", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			require.NoError(t, SetDeviceAdmin(c, true))
			c.Next()
		})
		r.POST("/admin", RequireAdmin(), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
