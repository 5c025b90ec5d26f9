package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warbler-app/warbler/internal/auth"
	"github.com/warbler-app/warbler/internal/handlers"
	"github.com/warbler-app/warbler/internal/middleware"
	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/internal/services"
	"github.com/warbler-app/warbler/pkg/cache"
	"github.com/warbler-app/warbler/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupServer wires the full router against an in-memory store and a
// miniredis-backed session manager, mirroring the production wiring minus
// the event producer.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Message{}, &models.Like{}))

	mr := miniredis.RunT(t)
	redisClient := cache.NewRedisClientFromExisting(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	log := logger.NewLogger()
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	identityService := services.NewIdentityService(userRepo, nil, log)
	socialService := services.NewSocialService(userRepo, followRepo, nil, log)
	contentService := services.NewContentService(messageRepo, likeRepo, followRepo, nil, log)

	sessions := auth.NewSessionManager(redisClient, "test-secret", time.Hour)

	userHandler := handlers.NewUserHandler(identityService, socialService, contentService, sessions)
	messageHandler := handlers.NewMessageHandler(contentService, 100)

	router := gin.New()
	api := router.Group("/api/v1")

	api.POST("/users/signup", userHandler.Signup)
	api.POST("/users/login", userHandler.Login)

	reads := api.Group("")
	reads.Use(middleware.OptionalAuth(sessions, userRepo))
	reads.GET("/users", userHandler.SearchUsers)
	reads.GET("/users/:id", userHandler.GetUser)
	reads.GET("/users/:id/following", userHandler.GetFollowing)
	reads.GET("/users/:id/followers", userHandler.GetFollowers)
	reads.GET("/messages/:id", messageHandler.GetMessage)
	reads.GET("/feed", messageHandler.GetFeed)

	ownReads := api.Group("")
	ownReads.Use(middleware.RequireAuth(sessions, userRepo))
	ownReads.GET("/users/:id/likes", userHandler.GetLikedMessages)

	mutations := api.Group("")
	mutations.Use(middleware.RequireAuth(sessions, userRepo), middleware.RequireCSRF())
	mutations.POST("/users/logout", userHandler.Logout)
	mutations.PUT("/users/profile", userHandler.UpdateProfile)
	mutations.DELETE("/users/profile", userHandler.DeleteAccount)
	mutations.POST("/users/:id/follow", userHandler.Follow)
	mutations.DELETE("/users/:id/follow", userHandler.Unfollow)
	mutations.POST("/messages", messageHandler.PostMessage)
	mutations.DELETE("/messages/:id", messageHandler.DeleteMessage)
	mutations.POST("/messages/:id/like", messageHandler.Like)
	mutations.DELETE("/messages/:id/like", messageHandler.Unlike)

	return router
}

type credentials struct {
	userID string
	token  string
	csrf   string
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, creds *credentials) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if creds != nil {
		req.Header.Set("Authorization", "Bearer "+creds.token)
		req.Header.Set("X-CSRF-Token", creds.csrf)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signupUser(t *testing.T, router *gin.Engine, username, email string) *credentials {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &credentials{userID: resp.User.ID, token: resp.Token, csrf: resp.CSRFToken}
}

func TestSignupLoginAndFeedFlow(t *testing.T) {
	router := setupServer(t)

	alice := signupUser(t, router, "alice", "alice@example.com")

	// Post a message as alice.
	w := doJSON(t, router, http.MethodPost, "/api/v1/messages", map[string]string{"text": "Hello"}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Bob follows alice and sees her message in his feed.
	bob := signupUser(t, router, "bob", "bob@example.com")
	w = doJSON(t, router, http.MethodPost, "/api/v1/users/"+alice.userID+"/follow", nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/feed", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")

	// Anonymous callers get the logged-out marker, not an empty feed.
	w = doJSON(t, router, http.MethodGet, "/api/v1/feed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	router := setupServer(t)

	alice := signupUser(t, router, "alice", "alice@example.com")

	// Valid session but missing anti-forgery token.
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"text": "Hello"}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No session at all.
	w = doJSON(t, router, http.MethodPost, "/api/v1/messages", map[string]string{"text": "Hello"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutTerminatesSession(t *testing.T) {
	router := setupServer(t)

	alice := signupUser(t, router, "alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/logout", nil, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The old token no longer resolves to an identity.
	w = doJSON(t, router, http.MethodGet, "/api/v1/feed", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestLoginAfterSignup(t *testing.T) {
	router := setupServer(t)

	signupUser(t, router, "alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "csrf_token")

	w = doJSON(t, router, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAccountEndsSessionAndRemovesUser(t *testing.T) {
	router := setupServer(t)

	alice := signupUser(t, router, "alice", "alice@example.com")

	w := doJSON(t, router, http.MethodDelete, "/api/v1/users/profile", nil, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/"+alice.userID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The deleted account's session is gone with it.
	w = doJSON(t, router, http.MethodGet, "/api/v1/feed", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestDuplicateSignupConflict(t *testing.T) {
	router := setupServer(t)

	signupUser(t, router, "alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLikesPageIsOwnerOnly(t *testing.T) {
	router := setupServer(t)

	alice := signupUser(t, router, "alice", "alice@example.com")
	bob := signupUser(t, router, "bob", "bob@example.com")

	w := doJSON(t, router, http.MethodGet, "/api/v1/users/"+alice.userID+"/likes", nil, bob)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/"+alice.userID+"/likes", nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
}
