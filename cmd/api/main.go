package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"rental-watch/internal/config"
	"rental-watch/internal/database"
	"rental-watch/internal/handlers"
	"rental-watch/internal/logging"
	"rental-watch/internal/metrics"
	"rental-watch/internal/neighborhood"
	"rental-watch/internal/notify"
	"rental-watch/internal/opendata"
	"rental-watch/internal/pipeline"
	"rental-watch/internal/ratelimit"
	"rental-watch/internal/scheduler"
	"rental-watch/internal/search"
)

var (
	gormDB        *database.GormDB
	appConfig     *config.Config
	rateLimiter   *ratelimit.RateLimiter
	appScheduler  *scheduler.Scheduler
	databaseReady bool
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	log := logrus.WithField("component", "main")

	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.WithError(err).Warnf("failed to load config from %s, using defaults", configPath)
		appConfig = config.DefaultConfig()
	}
	if err := appConfig.ApplyEnv(); err != nil {
		log.WithError(err).Fatal("invalid environment")
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := logging.Setup(appConfig.Logging); err != nil {
		log.WithError(err).Fatal("invalid logging configuration")
	}

	// A missing database does not stop the server; the read-only endpoints
	// still work and the job triggers answer 503.
	gormDB, err = database.Connect(appConfig.Database)
	if err != nil {
		log.WithError(err).Error("database unavailable")
	} else {
		defer gormDB.Close()
		if err := gormDB.InitSchema(); err != nil {
			log.WithError(err).Fatal("failed to initialize schema")
		}
		databaseReady = true
	}

	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.WithFields(logrus.Fields{
		"per_minute": appConfig.RateLimit.RequestsPerMinute,
		"per_hour":   appConfig.RateLimit.RequestsPerHour,
		"enabled":    appConfig.RateLimit.Enabled,
	}).Info("rate limiter initialized")

	openData := opendata.NewClient(opendata.Config{
		BaseURL:                appConfig.OpenData.BaseURL,
		AppToken:               appConfig.OpenData.AppToken,
		ViolationsDataset:      appConfig.OpenData.ViolationsDataset,
		ServiceRequestsDataset: appConfig.OpenData.ServiceRequestsDataset,
		PermitsDataset:         appConfig.OpenData.PermitsDataset,
		PageSize:               appConfig.OpenData.PageSize,
		Timeout:                appConfig.OpenData.GetTimeout(),
	}, rateLimiter, nil)

	deps := pipeline.Deps{
		Source:     openData,
		Renderer:   notify.NewRenderer(appConfig.Email.SiteURL),
		Dispatcher: notify.NewDispatcher(notify.NewResendSender(appConfig.Email.APIKey, appConfig.Email.From), appConfig.Email.BatchSize),
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
	}
	if appConfig.SlackEnabled() {
		deps.Slack = notify.NewSlackNotifier(appConfig.Slack.BotToken, appConfig.Slack.Channel)
		log.WithField("channel", appConfig.Slack.Channel).Info("run summaries will be posted to Slack")
	}

	var searcher handlers.BuildingSearcher
	if appConfig.SearchEnabled() {
		ms := appConfig.Search.Meilisearch
		searchClient := search.NewSearchClient(ms.Host, ms.APIKey, ms.Index)
		if err := searchClient.InitIndex(); err != nil {
			log.WithError(err).Warn("failed to initialize search index")
		} else {
			searcher = searchClient
			deps.Indexer = searchClient
		}
	}

	if appConfig.Job.SingleFlight {
		lease, err := database.NewAdvisoryLease(database.PostgresDSN(appConfig.Database.Postgres))
		if err != nil {
			log.WithError(err).Fatal("failed to open advisory lease connection")
		}
		defer lease.Close()
		deps.Lease = lease
	}

	var (
		watchJob    handlers.Job
		landlordJob handlers.Job
		runs        handlers.RunLister
		watches     handlers.Unsubscriber
	)
	if databaseReady {
		deps.Runs = gormDB
		wj := pipeline.NewWatchJob(gormDB, deps)
		lj := pipeline.NewLandlordAlertJob(gormDB, deps)
		watchJob, landlordJob = wj, lj
		runs, watches = gormDB, gormDB

		if err := appConfig.JobCredentials(true); err != nil {
			log.WithError(err).Warn("jobs cannot run until credentials are configured")
		} else {
			loc, _ := appConfig.Location()
			appScheduler = scheduler.NewScheduler(appConfig.Job, loc, wj, lj)
			if err := appScheduler.Start(); err != nil {
				log.WithError(err).Warn("failed to start scheduler")
			}
			defer appScheduler.Stop()
		}
	}

	gin.SetMode(appConfig.Server.Mode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/ratelimit/stats", getRateLimitStats)

	cronHandler := handlers.NewCronHandler(
		appConfig.Job.CronSecret,
		func() error { return appConfig.JobCredentials(databaseReady) },
		watchJob,
		landlordJob,
		runs,
	)
	r.POST("/api/cron/check-watches", cronHandler.CheckWatches)
	r.POST("/api/cron/landlord-alerts", cronHandler.LandlordAlerts)
	r.GET("/api/admin/runs", cronHandler.ListRuns)

	neighborhoodHandler := handlers.NewNeighborhoodHandler(neighborhood.NewAggregator(openData))
	r.GET("/api/neighborhoods", neighborhoodHandler.GetNeighborhood)
	r.GET("/api/neighborhoods/areas", neighborhoodHandler.ListAreas)

	recordsHandler := handlers.NewRecordsHandler(openData)
	r.GET("/api/addresses/:slug/records", recordsHandler.GetAddressRecords)

	buildingHandler := handlers.NewBuildingHandler(searcher, watches)
	r.GET("/api/buildings/search", buildingHandler.SearchBuildings)
	r.POST("/api/unsubscribe", buildingHandler.Unsubscribe)

	port := appConfig.Server.Port
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func healthCheck(c *gin.Context) {
	status := "ok"
	if gormDB == nil || gormDB.Ping() != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": databaseReady,
		"time":     time.Now(),
	})
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
