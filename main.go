package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"scholar-scope/config"
	"scholar-scope/models"
	"scholar-scope/scholar"
	"scholar-scope/services"
	"scholar-scope/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	profilesImportedCounter    prometheus.Counter
	publicationsScrapedCounter prometheus.Counter
)

func init() {
	profilesImportedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profiles_imported_total",
			Help: "Total number of profile imports completed.",
		},
	)
	publicationsScrapedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publications_scraped_total",
			Help: "Total number of publication records scraped from the source.",
		},
	)
	prometheus.MustRegister(profilesImportedCounter, publicationsScrapedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Profile{},
		&models.Publication{},
		&models.AuthorshipRole{},
		&models.ResearchArea{},
		&models.ResearchAreaTag{},
		&models.CitationSnapshot{},
		&models.ProfileMetricsSnapshot{},
		&models.CollaboratorEdge{},
		&models.CachedAnalysis{},
	)

	// Seeding
	if err := services.SeedResearchAreas(db, logging); err != nil {
		logging.Warn("Failed to seed research areas", zap.Error(err))
	}

	// Optionales Seiten-Archiv nach S3
	var archive scholar.ArchiveFunc
	if cfg.PageArchiveEnabled {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archive = pageArchiver(s3Client, cfg, logging)
		logging.Info("Page archive enabled", zap.String("bucket", cfg.StratoS3Bucket))
	}

	// Setup Services
	fetcher := scholar.NewFetcher(cfg.FetchTimeout, logging)
	limiter := scholar.NewLimiter(cfg.ScrapeConcurrency, cfg.ScrapeMinDelay)
	orchestrator := scholar.NewOrchestrator(fetcher, limiter, cfg.ScholarBaseURL, cfg.PageSize, logging, archive)
	importService := services.NewImportService(cfg, db, logging, orchestrator)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Setup Routes
	setupProfileRoutes(router, db, importService, logging)
	setupAnalysisRoutes(router, importService, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled profile refresh...")
		importService.RefreshStaleProfiles(context.Background())
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// pageArchiver sichert rohe Listing-Seiten nach S3. Fehler werden nur
// geloggt, das Scraping läuft weiter.
func pageArchiver(client *s3.Client, cfg *config.Config, log *zap.Logger) scholar.ArchiveFunc {
	return func(ctx context.Context, userID string, cstart int, html []byte) {
		key := storage.PageArchiveKey(userID, cstart)
		if _, err := storage.UploadFile(ctx, client, cfg.StratoS3Bucket, key, html, cfg); err != nil {
			log.Warn("Page archive upload failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func setupProfileRoutes(router *gin.Engine, db *gorm.DB, importService *services.ImportService, log *zap.Logger) {
	rg := router.Group("/profiles")

	// Import per URL oder roher Scholar-ID
	rg.POST("/import", func(c *gin.Context) {
		type ImportRequest struct {
			ProfileURL string `json:"profile_url" binding:"required"`
		}

		var req ImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		profile, err := importService.ImportProfile(c.Request.Context(), req.ProfileURL)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, scholar.ErrProfileNotFound):
				status = http.StatusNotFound
			case errors.Is(err, scholar.ErrFetchTimeout):
				status = http.StatusGatewayTimeout
			}
			log.Error("Profile import failed", zap.String("ref", req.ProfileURL), zap.Error(err))
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		profilesImportedCounter.Inc()

		var pubCount int64
		db.Model(&models.Publication{}).Where("profile_id = ?", profile.ID).Count(&pubCount)
		publicationsScrapedCounter.Add(float64(pubCount))

		c.JSON(http.StatusOK, profile)
	})

	rg.GET("/", func(c *gin.Context) {
		var profiles []models.Profile
		if err := db.Find(&profiles).Error; err != nil {
			log.Error("Database query for all profiles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, profiles)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var profile models.Profile
		if err := db.First(&profile, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
				return
			}
			log.Error("DB error loading profile", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	rg.GET("/:id/publications", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
			return
		}

		pubs, err := importService.GetPublications(uint(id))
		if err != nil {
			if errors.Is(err, services.ErrProfileUnknown) {
				c.JSON(http.StatusNotFound, gin.H{"error": "profile not imported"})
				return
			}
			log.Error("Loading publications failed", zap.Uint64("profile_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(pubs) {
			pubs = pubs[:limit]
		}
		c.JSON(http.StatusOK, pubs)
	})
}

func setupAnalysisRoutes(router *gin.Engine, importService *services.ImportService, log *zap.Logger) {
	rg := router.Group("/profiles/:id/analysis")

	handle := func(c *gin.Context, compute func(uint) (interface{}, error)) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
			return
		}

		result, err := compute(uint(id))
		if err != nil {
			if errors.Is(err, services.ErrProfileUnknown) {
				c.JSON(http.StatusNotFound, gin.H{"error": "profile not imported"})
				return
			}
			log.Error("Analysis failed", zap.Uint64("profile_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis error"})
			return
		}
		c.JSON(http.StatusOK, result)
	}

	rg.GET("/overview", func(c *gin.Context) {
		handle(c, func(id uint) (interface{}, error) { return importService.GetOverviewAnalysis(id) })
	})
	rg.GET("/authorship", func(c *gin.Context) {
		handle(c, func(id uint) (interface{}, error) { return importService.GetAuthorshipAnalysis(id) })
	})
	rg.GET("/collaboration", func(c *gin.Context) {
		handle(c, func(id uint) (interface{}, error) { return importService.GetCollaborationAnalysis(id) })
	})
	rg.GET("/complete", func(c *gin.Context) {
		handle(c, func(id uint) (interface{}, error) { return importService.GetCompleteAnalysis(id) })
	})
}
