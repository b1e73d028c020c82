package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/openpredict/settlement/app"
	"github.com/openpredict/settlement/app/amm"
	"github.com/openpredict/settlement/app/api"
	"github.com/openpredict/settlement/app/database"
	"github.com/openpredict/settlement/app/oracle"
	"github.com/openpredict/settlement/app/settlement"
	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/cache"
	"github.com/openpredict/settlement/internal/deps"
	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/internal/security"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.New(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	tokenMaker, err := security.NewPasetoMaker(cfg.TokenSymmetricKey)
	if err != nil {
		log.Fatal("Failed to create token maker:", err)
	}

	appLogger := logger.NewZeroLogger(os.Stdout, logger.LevelInfo, logger.Fields{
		"service": "settlement",
		"env":     cfg.AppEnv,
	})
	cacheService := cache.NewCache[string](cfg.CacheBackend, cfg.RedisOptions())

	container := deps.NewContainer(db, tokenMaker, appLogger, cacheService)

	// Order matters: amm and settlement resolve the wallet and oracle
	// services out of the container.
	wallet.InitRepositories(container)
	oracle.InitRepositories(container, &cfg.Oracle)
	amm.InitRepositories(container, &cfg.AMM)
	settlement.InitRepositories(container, &cfg.Settlement)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	apiV1.GET("/healthz", api.HealthCheck)

	settlement.MountPublic(apiV1, container)
	amm.MountPublic(apiV1, container)
	oracle.MountPublic(apiV1, container)

	authGroup := apiV1.Group("/")
	authGroup.Use(api.AuthMiddleware(tokenMaker))

	wallet.MountAuthenticated(authGroup, container)
	settlement.MountAuthenticated(authGroup, container)
	amm.MountAuthenticated(authGroup, container)
	oracle.MountAuthenticated(authGroup, container)

	addr := fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)
	log.Printf("Starting settlement API server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
