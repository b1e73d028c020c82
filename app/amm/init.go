package amm

import (
	"github.com/gin-gonic/gin"

	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/deps"
)

const (
	RepoKey    = "amm_repository"
	ServiceKey = "amm_service"
)

// InitRepositories initializes and registers this module's repository and
// service on the container. The wallet module must be initialized first.
func InitRepositories(container *deps.Container, config *Config) {
	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	wallets := container.GetService(wallet.ServiceKey).(wallet.Service)
	srv := NewService(repo, wallets, config, container.DB, container.Cache, container.Logger)
	container.RegisterService(ServiceKey, srv)
}

// MountPublic mounts the read-only market data routes.
func MountPublic(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	group := r.Group("/markets")
	group.GET("/:ref/odds", handler.GetOdds)
	group.GET("/:ref/pool", handler.GetPool)
}

// MountAuthenticated mounts the trading routes.
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	r.POST("/pools", handler.CreatePool)

	group := r.Group("/markets")
	group.POST("/:ref/buy", handler.Buy)
	group.POST("/:ref/sell", handler.Sell)
	group.POST("/:ref/liquidity", handler.AddLiquidity)
	group.DELETE("/:ref/liquidity", handler.RemoveLiquidity)
}
