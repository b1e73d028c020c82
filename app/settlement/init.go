package settlement

import (
	"github.com/gin-gonic/gin"

	"github.com/openpredict/settlement/app/oracle"
	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/deps"
)

const (
	RepoKey    = "settlement_repository"
	ServiceKey = "settlement_service"
)

// InitRepositories initializes and registers this module's repository and
// service on the container. The wallet and oracle modules must be
// initialized first.
func InitRepositories(container *deps.Container, config *Config) {
	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	wallets := container.GetService(wallet.ServiceKey).(wallet.Service)
	consensus := container.GetService(oracle.ServiceKey).(oracle.Service)
	srv := NewService(repo, wallets, consensus, config, container.DB, container.Logger)
	container.RegisterService(ServiceKey, srv)
}

// MountPublic mounts the read-only market routes.
func MountPublic(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	group := r.Group("/markets")
	group.GET("", handler.ListMarkets)
	group.GET("/:ref", handler.GetMarket)
}

// MountAuthenticated mounts the lifecycle and payout routes.
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	group := r.Group("/markets")
	group.POST("", handler.CreateMarket)
	group.POST("/:ref/close", handler.CloseMarket)
	group.POST("/:ref/resolve", handler.ResolveMarket)
	group.POST("/:ref/claim", handler.Claim)
	group.POST("/:ref/commitments", handler.Commit)
	group.POST("/:ref/reveal", handler.Reveal)
}
