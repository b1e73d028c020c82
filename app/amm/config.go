package amm

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFeeBps is the trading fee in basis points applied to buys and
	// sells. 20 bps = 0.2%.
	DefaultFeeBps = 20

	// DefaultLiquidityCap bounds a single pool's combined reserves.
	DefaultLiquidityCap = "100000000000000000000" // 10^20

	defaultOddsCacheTTL = 5 * time.Second
)

// Config carries the trading parameters for the pool engine.
type Config struct {
	FeeBps       uint64        `env:"AMM_FEE_BPS" env-default:"20" validate:"lte=10000"`
	LiquidityCap string        `env:"AMM_LIQUIDITY_CAP" env-default:"100000000000000000000"`
	EscrowID     string        `env:"AMM_ESCROW_ID" validate:"required,uuid4"`
	FeeSinkID    string        `env:"AMM_FEE_SINK_ID" validate:"required,uuid4"`
	OddsCacheTTL time.Duration `env:"AMM_ODDS_CACHE_TTL" env-default:"5s"`

	liquidityCap decimal.Decimal
	escrowID     uuid.UUID
	feeSinkID    uuid.UUID
}

// Parse resolves the string-typed fields once at startup.
func (c *Config) Parse() error {
	capValue, err := decimal.NewFromString(c.LiquidityCap)
	if err != nil {
		return err
	}
	escrow, err := uuid.Parse(c.EscrowID)
	if err != nil {
		return err
	}
	sink, err := uuid.Parse(c.FeeSinkID)
	if err != nil {
		return err
	}
	c.liquidityCap = capValue
	c.escrowID = escrow
	c.feeSinkID = sink
	if c.OddsCacheTTL <= 0 {
		c.OddsCacheTTL = defaultOddsCacheTTL
	}
	return nil
}

func (c *Config) Cap() decimal.Decimal { return c.liquidityCap }
func (c *Config) Escrow() uuid.UUID    { return c.escrowID }
func (c *Config) FeeSink() uuid.UUID   { return c.feeSinkID }
