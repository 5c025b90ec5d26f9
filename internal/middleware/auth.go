package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warbler-app/warbler/internal/auth"
	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
)

const (
	currentUserKey = "current_user"
	sessionKey     = "current_session"
)

// resolveIdentity turns the bearer token into a loaded user, or leaves the
// request anonymous when there is no live session behind it.
func resolveIdentity(c *gin.Context, sessions *auth.SessionManager, users *repository.UserRepository) (*models.User, *auth.Session, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, nil, nil
	}

	session, err := sessions.Resolve(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	user, err := users.GetByID(c.Request.Context(), session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// Account deleted while the session key lingered.
		return nil, nil, nil
	}

	return user, session, nil
}

// RequireAuth rejects anonymous requests. On success the resolved user and
// session are available through CurrentUser / CurrentSession.
func RequireAuth(sessions *auth.SessionManager, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, err := resolveIdentity(c, sessions, users)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(currentUserKey, user)
		c.Set(sessionKey, session)
		c.Next()
	}
}

// OptionalAuth resolves the identity when present but lets anonymous
// requests through; read paths scope visibility off CurrentUser being nil.
func OptionalAuth(sessions *auth.SessionManager, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, err := resolveIdentity(c, sessions, users)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			return
		}
		if user != nil {
			c.Set(currentUserKey, user)
			c.Set(sessionKey, session)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user for this request, or nil for
// anonymous callers.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(currentUserKey); ok {
		return v.(*models.User)
	}
	return nil
}

// CurrentSession returns the live session for this request, or nil.
func CurrentSession(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(*auth.Session)
	}
	return nil
}
