package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// Define typed context keys
type contextKey string

const (
	UserContextKey contextKey = "user"
	DeviceIDKey    contextKey = "deviceID"
	DeviceAdminKey contextKey = "deviceAdmin"
)

// Keys inside the signed cookie session.
const (
	sessionDeviceID = "device_id"
	sessionAdmin    = "is_admin"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Map SDK scripts and tiles are served from Google.
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' https://maps.googleapis.com; " +
			"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
			"font-src 'self' https://fonts.gstatic.com; " +
			"img-src 'self' data: https: blob:; " +
			"connect-src 'self' https://maps.googleapis.com"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// DeviceSession makes sure every request carries a device id, minting one on
// first visit, and exposes the device admin flag.
func DeviceSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		deviceID, _ := session.Get(sessionDeviceID).(string)
		if deviceID == "" {
			deviceID = uuid.NewString()
			session.Set(sessionDeviceID, deviceID)
			_ = session.Save()
		}
		isAdmin, _ := session.Get(sessionAdmin).(bool)

		c.Set(string(DeviceIDKey), deviceID)
		c.Set(string(DeviceAdminKey), isAdmin)
		c.Next()
	}
}

// SetDeviceAdmin stores the device admin flag in the cookie session.
func SetDeviceAdmin(c *gin.Context, admin bool) error {
	session := sessions.Default(c)
	if admin {
		session.Set(sessionAdmin, true)
	} else {
		session.Delete(sessionAdmin)
	}
	c.Set(string(DeviceAdminKey), admin)
	return session.Save()
}

// GetUserFromContext extracts user information from Gin context
func GetUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil
	}

	return userModel
}

// SetUser stores the resolved user for later handlers.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(string(UserContextKey), user)
}

// GetDeviceID returns the device id set by DeviceSession, or "".
func GetDeviceID(c *gin.Context) string {
	return c.GetString(string(DeviceIDKey))
}

// IsDeviceAdmin reports whether the device passed admin verification.
func IsDeviceAdmin(c *gin.Context) bool {
	return c.GetBool(string(DeviceAdminKey))
}

// ActorFromContext builds the write actor from the resolved session and
// device. Admin comes from either the account or the device flag.
func ActorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{
		DeviceID: GetDeviceID(c),
		IsAdmin:  IsDeviceAdmin(c),
	}
	if user := GetUserFromContext(c); user != nil {
		actor.UserID = user.ID
		actor.IsAdmin = actor.IsAdmin || user.IsAdmin
	}
	return actor
}

// RequireAdmin lets through account admins and verified admin devices.
// Callers without an account get the login hint, signed-in users a 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		switch {
		case actor.IsAdmin:
			c.Next()
		case !actor.Authenticated():
			AbortUnauthenticated(c)
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
		}
	}
}

// AbortUnauthenticated answers 401 with a login redirect hint. HTMX clients
// get the HX-Redirect header as well.
func AbortUnauthenticated(c *gin.Context) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", LoginPath)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    "sign-in required",
		"redirect": LoginPath,
	})
}

// ActorContext copies the resolved actor into the request context so
// services can read it without gin.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(models.WithActor(c.Request.Context(), ActorFromContext(c)))
		c.Next()
	}
}
