package oracle

import (
	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/internal/deps"
)

const (
	RepoKey    = "oracle_repository"
	ServiceKey = "oracle_service"
)

// InitRepositories initializes and registers this module's repository and
// service on the container.
func InitRepositories(container *deps.Container, config *Config) {
	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	srv := NewService(repo, config, container.DB, container.Logger)
	container.RegisterService(ServiceKey, srv)
}

// MountPublic mounts the read-only consensus route.
func MountPublic(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	r.GET("/markets/:ref/consensus", handler.GetConsensus)
}

// MountAuthenticated mounts the registry and voting routes.
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := NewHandler(container.GetService(ServiceKey).(Service))

	r.POST("/oracles", handler.RegisterOracle)
	r.POST("/markets/:ref/votes", handler.SubmitVote)
}
