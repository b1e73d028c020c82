package oracle

import "github.com/google/uuid"

const (
	// DefaultThreshold is the minimum vote count a side needs before it can
	// carry consensus.
	DefaultThreshold = 2

	// DefaultMaxOracles caps the global attestor registry.
	DefaultMaxOracles = 10
)

// Config carries the consensus parameters for the oracle registry.
type Config struct {
	Threshold  int    `env:"ORACLE_THRESHOLD" env-default:"2" validate:"gte=1"`
	MaxOracles int    `env:"ORACLE_MAX_ORACLES" env-default:"10" validate:"gte=1"`
	AdminID    string `env:"ORACLE_ADMIN_ID" validate:"required,uuid4"`

	adminID uuid.UUID
}

// Parse resolves the string-typed fields once at startup.
func (c *Config) Parse() error {
	admin, err := uuid.Parse(c.AdminID)
	if err != nil {
		return err
	}
	c.adminID = admin
	return nil
}

func (c *Config) Admin() uuid.UUID { return c.adminID }
