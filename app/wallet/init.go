package wallet

import (
	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/internal/deps"
)

const (
	RepoKey    = "wallet_repository"
	ServiceKey = "wallet_service"
)

// InitRepositories initializes and registers this module's repository and
// service on the container.
func InitRepositories(container *deps.Container) {
	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	srv := NewService(repo, container.DB)
	container.RegisterService(ServiceKey, srv)
}

// MountAuthenticated mounts wallet routes that require a verified principal.
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	group := r.Group("/wallets")
	group.GET("/me", handler.GetBalance)
	group.GET("/me/transactions", handler.GetTransactions)
	group.POST("/deposit", handler.Deposit)
}
