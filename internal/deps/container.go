package deps

import (
	"github.com/openpredict/settlement/internal/cache"
	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/internal/security"
	"gorm.io/gorm"
)

// Container holds the shared dependencies handed to each module's Init.
type Container struct {
	DB         *gorm.DB
	TokenMaker security.Maker
	Logger     logger.Logger
	Cache      cache.Cache[string]

	// Repositories and services are stored as interface{} so modules can
	// share them without import cycles.
	repositories map[string]interface{}
	services     map[string]interface{}
}

func NewContainer(db *gorm.DB, tokenMaker security.Maker, log logger.Logger, c cache.Cache[string]) *Container {
	return &Container{
		DB:           db,
		TokenMaker:   tokenMaker,
		Logger:       log,
		Cache:        c,
		repositories: make(map[string]interface{}),
		services:     make(map[string]interface{}),
	}
}

// RegisterRepository stores a repository with a key
func (c *Container) RegisterRepository(key string, repo interface{}) {
	c.repositories[key] = repo
}

// GetRepository retrieves a repository by key
func (c *Container) GetRepository(key string) interface{} {
	return c.repositories[key]
}

// RegisterService stores a service with a key
func (c *Container) RegisterService(key string, service interface{}) {
	c.services[key] = service
}

// GetService retrieves a service by key
func (c *Container) GetService(key string) interface{} {
	return c.services[key]
}
