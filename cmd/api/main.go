package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/linlihub/linli-backend/internal/config"
	"github.com/linlihub/linli-backend/internal/handler"
	"github.com/linlihub/linli-backend/internal/middleware"
	"github.com/linlihub/linli-backend/internal/repository"
	"github.com/linlihub/linli-backend/internal/routes"
	"github.com/linlihub/linli-backend/internal/service"
	pkgcache "github.com/linlihub/linli-backend/pkg/cache"
	"github.com/linlihub/linli-backend/pkg/jwt"
	pkglogger "github.com/linlihub/linli-backend/pkg/logger"
	pkgredis "github.com/linlihub/linli-backend/pkg/redis"
	pkgsearch "github.com/linlihub/linli-backend/pkg/search"
)

// @title           LinLi Backend API
// @version         1.0
// @description     LinLi Community Backend - content moderation and identity decryption API
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.GetLogger().Info().
		Str("env", env).
		Strs("env_files", dotenvFiles).
		Msg("starting")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.GetLogger().Info().Msg("connected to Postgres")

	// Redis (optional, caches degrade to no-ops without it)
	var cacheService pkgcache.Service
	redisClient, err := pkgredis.NewClient(pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("redis unavailable, continuing without cache")
	} else {
		cacheService = pkgcache.NewService(redisClient)
		pkglogger.GetLogger().Info().Msg("connected to Redis")
	}

	// Elasticsearch (optional, indexing is disabled without it)
	var esClient *pkgsearch.Client
	if cfg.Elasticsearch.Enabled && len(cfg.Elasticsearch.Addresses) > 0 {
		esClient, err = pkgsearch.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
		if err != nil {
			pkglogger.GetLogger().Warn().Err(err).Msg("elasticsearch unavailable, continuing without search indexing")
			esClient = nil
		} else {
			pkglogger.GetLogger().Info().Msg("connected to Elasticsearch")
		}
	}

	indexer := service.NewIndexer(esClient, cfg.Elasticsearch.PostIndex)
	indexer.Start()
	defer indexer.Stop()

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	decryptionRepo := repository.NewDecryptionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// Services
	classifier := service.NewClassifier(cfg.Moderation)
	auditService := service.NewAuditService(auditRepo)
	moderationService := service.NewModerationService(
		db, postRepo, commentRepo, reportRepo, queueRepo, profileRepo,
		classifier, auditService, indexer, cacheService,
	)
	decryptionService := service.NewDecryptionService(
		decryptionRepo, postRepo, commentRepo, profileRepo, auditService,
	)

	// Handlers
	contentHandler := handler.NewContentHandler(moderationService)
	reportHandler := handler.NewReportHandler(moderationService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	decryptionHandler := handler.NewDecryptionHandler(decryptionService)
	auditHandler := handler.NewAuditHandler(auditService)

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "linli-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, contentHandler, reportHandler, moderationHandler, decryptionHandler, auditHandler, jwtManager)

	if sqlDB, err := db.DB(); err == nil {
		middleware.CollectDBStats(sqlDB, 15*time.Second)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.GetLogger().Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	logMode := gormlogger.Warn
	if cfg.Server.Env == "local" {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
