package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/warden-labs/zerotrust/api/audit"
	"github.com/warden-labs/zerotrust/api/config"
	"github.com/warden-labs/zerotrust/api/controller"
	"github.com/warden-labs/zerotrust/api/dao"
	"github.com/warden-labs/zerotrust/api/db"
	"github.com/warden-labs/zerotrust/api/engine"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/router"
	"github.com/warden-labs/zerotrust/api/service"
	"github.com/warden-labs/zerotrust/api/trust"
	"github.com/warden-labs/zerotrust/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Policy persistence
	policyStore := dao.NewPolicyDAO(db.Neo4jDriver)

	// Trust scorer runs as a background task
	scorer := trust.NewScorer(
		config.GetDuration("trust.refreshInterval"),
		config.GetDuration("trust.signalWindow"),
	)
	go scorer.Start(ctx)
	defer scorer.Stop()

	// Decision pipeline
	params := engineParams()
	metrics := engine.NewMetrics()
	scorer.SetRecomputeHook(metrics.RecordTrustRecompute)
	decisionCache, err := engine.NewDecisionCache(
		int64(config.GetInt("engine.decisionCacheSize")),
		config.GetDuration("engine.decisionCacheTTL"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize decision cache", zap.Error(err))
	}
	defer decisionCache.Close()
	evaluator := engine.NewEvaluator(policyStore, scorer, decisionCache, metrics, params)

	// Initialize services
	services, err := service.InitializeServices(
		policyStore,
		evaluator,
		scorer,
		auditService,
		validationUtil,
		cacheService,
		notificationService,
		eventBus,
		metrics,
		config.GetDuration("engine.evaluationTimeout"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(
		controllers,
		metrics,
		config.GetInt("rateLimit.requests"),
		config.GetDuration("rateLimit.window"),
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func engineParams() engine.Params {
	params := engine.DefaultParams()
	params.ConditionMatchThreshold = config.GetFloat64("engine.conditionMatchThreshold")
	params.MediumRiskThreshold = config.GetFloat64("engine.mediumRiskThreshold")
	params.HighRiskThreshold = config.GetFloat64("engine.highRiskThreshold")
	params.CriticalRiskThreshold = config.GetFloat64("engine.criticalRiskThreshold")
	params.ExpiryByLevel = map[model.RiskLevel]time.Duration{
		model.RiskLow:    config.GetDuration("engine.expiry.low"),
		model.RiskMedium: config.GetDuration("engine.expiry.medium"),
		model.RiskHigh:   config.GetDuration("engine.expiry.high"),
	}
	params.DefaultExpiry = config.GetDuration("engine.expiry.default")
	params.StepUpTimeout = config.GetDuration("engine.stepUpTimeout")
	return params
}
