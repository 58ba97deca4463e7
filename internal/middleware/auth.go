package middleware

import (
	"net/http"
	"strings"
	"wardwatch/internal/auth"
	"wardwatch/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"

// SessionUserKey is the session key holding the signed-in user's id.
const SessionUserKey = "user_id"

// LoadUser resolves the actor for the request and stores it under
// CheckUserKey. A bearer token wins over the session cookie. Browsers cannot
// set headers on EventSource, so access_token in the query is accepted too.
// Requests without a valid actor continue anonymously.
func LoadUser(gdb *gorm.DB, tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := userFromToken(c, gdb, tokens); user != nil {
			c.Set(CheckUserKey, user)
		} else if user := userFromSession(c, gdb); user != nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous requests with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "unauthorized", "message": "authentication required"},
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the actor set by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func userFromToken(c *gin.Context, gdb *gorm.DB, tokens *auth.JWTManager) *models.User {
	if tokens == nil {
		return nil
	}
	raw := bearerToken(c.GetHeader("Authorization"))
	if raw == "" {
		raw = c.Query("access_token")
	}
	if raw == "" {
		return nil
	}

	userToken, err := tokens.Validate(raw)
	if err != nil {
		return nil
	}

	var user models.User
	if err := gdb.WithContext(c.Request.Context()).
		Where("token = ? AND is_active = ?", userToken, true).
		First(&user).Error; err != nil {
		return nil
	}
	return &user
}

func userFromSession(c *gin.Context, gdb *gorm.DB) *models.User {
	session := sessions.Default(c)
	userID := session.Get(SessionUserKey)
	if userID == nil {
		return nil
	}

	var user models.User
	if err := gdb.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
