package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/auth"
	"github.com/warbler-app/warbler/internal/metrics"
	"github.com/warbler-app/warbler/internal/middleware"
	"github.com/warbler-app/warbler/internal/services"
)

type UserHandler struct {
	identity *services.IdentityService
	social   *services.SocialService
	content  *services.ContentService
	sessions *auth.SessionManager
}

func NewUserHandler(identity *services.IdentityService, social *services.SocialService, content *services.ContentService, sessions *auth.SessionManager) *UserHandler {
	return &UserHandler{
		identity: identity,
		social:   social,
		content:  content,
		sessions: sessions,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Signup(c *gin.Context) {
	var params services.SignupParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.Signup(c.Request.Context(), &params)
	if err != nil {
		metrics.IncSignup("failure")
		respondError(c, err)
		return
	}
	metrics.IncSignup("success")

	// Signing up logs the new user in.
	token, session, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":       user,
		"token":      token,
		"csrf_token": session.CSRFToken,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		metrics.IncLogin("failure")
		respondError(c, err)
		return
	}
	metrics.IncLogin("success")

	token, session, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"token":      token,
		"csrf_token": session.CSRFToken,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if err := h.sessions.Destroy(c.Request.Context(), session.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	user, err := h.identity.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	messages, err := h.content.ListUserMessages(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"user": user, "messages": messages}

	if actor := middleware.CurrentUser(c); actor != nil && actor.ID != id {
		following, err := h.social.IsFollowing(c.Request.Context(), actor.ID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["is_following"] = following
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.identity.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var params services.UpdateProfileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), &params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.identity.DeleteAccount(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	// The account is gone; its session goes with it.
	session := middleware.CurrentSession(c)
	if err := h.sessions.Destroy(c.Request.Context(), session.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *UserHandler) Follow(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.social.Follow(c.Request.Context(), middleware.CurrentUser(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	metrics.IncFollow("follow")

	c.JSON(http.StatusOK, gin.H{"message": "followed"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.social.Unfollow(c.Request.Context(), middleware.CurrentUser(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	metrics.IncFollow("unfollow")

	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	users, err := h.social.ListFollowing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": users})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	users, err := h.social.ListFollowers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": users})
}

// GetLikedMessages shows a user's liked messages. Only the user themselves
// may see their likes.
func (h *UserHandler) GetLikedMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := services.RequireOwner(middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	messages, err := h.content.ListLikedMessages(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
