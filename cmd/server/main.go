package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging
	"time"    // Rate limit windows

	"kcode_backend/internal/api"        // Custom package for API handlers
	"kcode_backend/internal/chain"      // On-chain KCODE issuer
	"kcode_backend/internal/config"     // Custom package for configuration
	"kcode_backend/internal/middleware" // Custom package for middleware
	"kcode_backend/internal/monitoring" // Reserve monitor
	"kcode_backend/internal/referrals"  // Referral fan-out
	"kcode_backend/internal/rewards"    // Reward credit service
	"kcode_backend/internal/social"     // Social platform clients

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Setup the on-chain issuer with the backend signer key
	issuer, err := chain.NewClient(cfg.RPCURL, cfg.SignerKey, cfg.KcodeContract, cfg.ChainID)
	if err != nil {
		logrus.Fatalf("failed to connect to chain RPC: %v", err)
	}

	// Wire the reward pipeline
	distributor := referrals.NewDistributor(db, issuer)     // Referral fan-out
	rewardSvc := rewards.NewService(db, issuer, distributor) // KCODE credits
	monitor := monitoring.NewMonitor(issuer, cfg)            // Reserve health

	// Setup the social platform clients
	telegramVerifier, err := social.NewTelegramVerifier(cfg.TelegramBotToken, cfg.TelegramChannel)
	if err != nil {
		logrus.Fatalf("failed to create telegram verifier: %v", err)
	}
	socialClients := api.SocialClients{
		Discord:  social.NewDiscordClient(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI, cfg.DiscordGuildID),
		Telegram: telegramVerifier,
		Twitter:  social.NewTwitterClient(cfg.TwitterHandle),
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes (nonce issuance is IP rate limited)
	authGroup := r.Group("/api/auth")
	authGroup.POST("/nonce", middleware.RateLimitMiddleware(redisClient, "auth_nonce", 10, time.Minute), api.NonceHandler(redisClient)) // Challenge endpoint
	authGroup.POST("/verify", api.VerifyHandler(db, redisClient, cfg.JWTSecret))                                                        // Signature verification endpoint

	// Waitlist is public but rate limited by IP
	r.POST("/api/waitlist", middleware.RateLimitMiddleware(redisClient, "waitlist", 5, time.Minute), api.WaitlistHandler(db))

	// Authenticated routes (protected by JWT)
	userGroup := r.Group("/api")
	userGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	userGroup.GET("/user/profile", api.ProfileHandler(db, redisClient))                  // Profile endpoint
	userGroup.GET("/user/referrals", api.ReferralsHandler(db))                           // Referral stats endpoint
	userGroup.GET("/user/transactions", api.TransactionHistoryHandler(db, redisClient))  // Ledger history endpoint
	userGroup.POST("/points/ritual",                                                     // Daily ritual endpoint
		middleware.RateLimitMiddleware(redisClient, "ritual", 10, time.Minute),
		api.RitualHandler(db, redisClient, rewardSvc))
	userGroup.GET("/tasks", api.ListTasksHandler(db)) // Task listing endpoint
	userGroup.POST("/tasks/complete",                 // Task completion endpoint
		middleware.RateLimitMiddleware(redisClient, "task_complete", 20, time.Minute),
		api.CompleteTaskHandler(db, redisClient, rewardSvc))
	userGroup.POST("/social/verify/start", api.StartVerifyHandler(db, socialClients, cfg.TelegramChannel)) // Verification start endpoint
	userGroup.POST("/social/verify/complete",                                                              // Verification completion endpoint
		middleware.RateLimitMiddleware(redisClient, "social_verify", 10, time.Minute),
		api.CompleteVerifyHandler(db, redisClient, socialClients, rewardSvc))
	userGroup.POST("/wheel/purchase-spin", api.PurchaseSpinHandler(db, redisClient)) // Spin purchase endpoint
	userGroup.POST("/wheel/spin",                                                    // Spin endpoint
		middleware.RateLimitMiddleware(redisClient, "wheel_spin", 30, time.Minute),
		api.SpinHandler(db, redisClient, rewardSvc))

	// Admin routes (protected, allowlisted wallets only)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(cfg.AdminWallets))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))               // List users endpoint
	adminGroup.GET("/transactions", api.ListTransactionsHandler(db, redisClient)) // List ledger endpoint
	adminGroup.GET("/reserves", api.ReservesHandler(monitor, redisClient))        // Reserve health endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
