package admin

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
)

func setupRouter(password string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(password, domain.NewBaseHandler(zap.NewNop()))

	r := gin.New()
	r.Use(sessions.Sessions("tekuteku", cookie.NewStore([]byte("test-secret"))))
	r.Use(middleware.DeviceSession())
	r.POST("/api/admin/verify", h.Verify)
	r.POST("/api/admin/logout", h.Logout)
	r.GET("/admin-state", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatBool(middleware.IsDeviceAdmin(c)))
	})
	return r
}

// latest keeps the last Set-Cookie per name, the way a browser would.
func latest(cookies []*http.Cookie) []*http.Cookie {
	byName := map[string]int{}
	var out []*http.Cookie
	for _, c := range cookies {
		if i, ok := byName[c.Name]; ok {
			out[i] = c
			continue
		}
		byName[c.Name] = len(out)
		out = append(out, c)
	}
	return out
}

func verify(r *gin.Engine, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

func adminState(r *gin.Engine, cookies []*http.Cookie) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-state", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w.Body.String()
}

func TestVerify(t *testing.T) {
	t.Run("secret unset", func(t *testing.T) {
		w := verify(setupRouter(""), `{"password":"anything"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"server error"}`, w.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		r := setupRouter("hunter2")
		w := verify(r, `{"password":"hunter3"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"password incorrect"}`, w.Body.String())
		assert.Equal(t, "false", adminState(r, latest(w.Result().Cookies())))
	})

	t.Run("empty password never matches", func(t *testing.T) {
		w := verify(setupRouter("hunter2"), `{"password":""}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("correct password enables admin mode for the device", func(t *testing.T) {
		r := setupRouter("hunter2")
		w := verify(r, `{"password":"hunter2"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())

		cookies := latest(w.Result().Cookies())
		require.NotEmpty(t, cookies)
		assert.Equal(t, "true", adminState(r, cookies))
	})

	t.Run("logout clears admin mode", func(t *testing.T) {
		r := setupRouter("hunter2")
		cookies := latest(verify(r, `{"password":"hunter2"}`).Result().Cookies())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, "false", adminState(r, latest(w.Result().Cookies())))
	})

	t.Run("malformed body", func(t *testing.T) {
		w := verify(setupRouter("hunter2"), `{`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"server error"}`, w.Body.String())
	})
}

type countingClearer struct{ calls int }

func (c *countingClearer) ClearAll() { c.calls++ }

func TestClearCaches(t *testing.T) {
	caches := &countingClearer{}
	r := setupRouter("hunter2")
	h := NewHandler("hunter2", domain.NewBaseHandler(zap.NewNop()))
	r.POST("/api/admin/cache/clear", middleware.RequireAdmin(), h.ClearCaches(caches))

	clear := func(cookies []*http.Cookie) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/cache/clear", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, clear(nil))
	assert.Zero(t, caches.calls)

	cookies := latest(verify(r, `{"password":"hunter2"}`).Result().Cookies())
	assert.Equal(t, http.StatusOK, clear(cookies))
	assert.Equal(t, 1, caches.calls)
}
