package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warbler-app/warbler/internal/auth"
	"github.com/warbler-app/warbler/internal/config"
	"github.com/warbler-app/warbler/internal/handlers"
	"github.com/warbler-app/warbler/internal/middleware"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/internal/services"
	"github.com/warbler-app/warbler/pkg/cache"
	"github.com/warbler-app/warbler/pkg/logger"
	"github.com/warbler-app/warbler/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting Warbler API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	contentEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ContentEvents)
	defer contentEventsProducer.Close()

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)

	identityService := services.NewIdentityService(userRepo, userEventsProducer, logger)
	socialService := services.NewSocialService(userRepo, followRepo, userEventsProducer, logger)
	contentService := services.NewContentService(messageRepo, likeRepo, followRepo, contentEventsProducer, logger)

	sessions := auth.NewSessionManager(redisClient, cfg.Session.Secret, cfg.Session.TTL)

	userHandler := handlers.NewUserHandler(identityService, socialService, contentService, sessions)
	messageHandler := handlers.NewMessageHandler(contentService, cfg.App.FeedLimit)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/users/signup", userHandler.Signup)
		api.POST("/users/login", userHandler.Login)

		// Read paths: identity is optional, visibility scoping only.
		reads := api.Group("")
		reads.Use(middleware.OptionalAuth(sessions, userRepo))
		{
			reads.GET("/users", userHandler.SearchUsers)
			reads.GET("/users/:id", userHandler.GetUser)
			reads.GET("/users/:id/following", userHandler.GetFollowing)
			reads.GET("/users/:id/followers", userHandler.GetFollowers)
			reads.GET("/messages/:id", messageHandler.GetMessage)
			reads.GET("/feed", messageHandler.GetFeed)
		}

		// Likes page is visible to its owner only.
		ownReads := api.Group("")
		ownReads.Use(middleware.RequireAuth(sessions, userRepo))
		{
			ownReads.GET("/users/:id/likes", userHandler.GetLikedMessages)
		}

		// Mutations: authenticated session plus anti-forgery token.
		mutations := api.Group("")
		mutations.Use(middleware.RequireAuth(sessions, userRepo), middleware.RequireCSRF())
		{
			mutations.POST("/users/logout", userHandler.Logout)
			mutations.PUT("/users/profile", userHandler.UpdateProfile)
			mutations.DELETE("/users/profile", userHandler.DeleteAccount)
			mutations.POST("/users/:id/follow", userHandler.Follow)
			mutations.DELETE("/users/:id/follow", userHandler.Unfollow)

			mutations.POST("/messages", messageHandler.PostMessage)
			mutations.DELETE("/messages/:id", messageHandler.DeleteMessage)
			mutations.POST("/messages/:id/like", messageHandler.Like)
			mutations.DELETE("/messages/:id/like", messageHandler.Unlike)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "warbler"
  password: "warbler"
  dbname: "warbler"
  sslmode: "disable"
  max_open_conns: 100
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 100
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    user_events: "user-events"
    content_events: "content-events"

session:
  secret: "change-me-in-production"
  ttl: 24h

app:
  feed_limit: 100
`

	if err := os.MkdirAll("configs", 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
