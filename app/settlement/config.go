package settlement

import "github.com/google/uuid"

// DefaultClaimFeePercent is the platform cut taken from every gross payout.
const DefaultClaimFeePercent = 10

// Config carries the payout parameters for market settlement.
type Config struct {
	ClaimFeePercent uint64 `env:"SETTLEMENT_CLAIM_FEE_PERCENT" env-default:"10" validate:"lte=100"`
	EscrowID        string `env:"SETTLEMENT_ESCROW_ID" validate:"required,uuid4"`
	FeeSinkID       string `env:"SETTLEMENT_FEE_SINK_ID" validate:"required,uuid4"`

	escrowID  uuid.UUID
	feeSinkID uuid.UUID
}

// Parse resolves the string-typed fields once at startup.
func (c *Config) Parse() error {
	escrow, err := uuid.Parse(c.EscrowID)
	if err != nil {
		return err
	}
	sink, err := uuid.Parse(c.FeeSinkID)
	if err != nil {
		return err
	}
	c.escrowID = escrow
	c.feeSinkID = sink
	return nil
}

func (c *Config) Escrow() uuid.UUID  { return c.escrowID }
func (c *Config) FeeSink() uuid.UUID { return c.feeSinkID }
