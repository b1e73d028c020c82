package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Oracle is a registered attestor identity. The registry is global, not
// per-market, and capacity-bounded by configuration.
type Oracle struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Identity uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"identity"`
	Name     string    `gorm:"type:varchar(64);not null" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Oracle model
func (*Oracle) TableName() string {
	return "oracles"
}

func (o *Oracle) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OracleVote is one oracle's binding attestation for one market.
// Write-once: the unique index enforces at most one vote per oracle per
// market, and votes are never updated afterward.
type OracleVote struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_oracle_votes_market_oracle" json:"market_id"`
	OracleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_oracle_votes_market_oracle" json:"oracle_id"`
	Outcome  int16     `gorm:"type:smallint;not null" json:"outcome"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
	Oracle *Oracle `gorm:"foreignKey:OracleID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for OracleVote model
func (*OracleVote) TableName() string {
	return "oracle_votes"
}

func (v *OracleVote) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Validate checks the vote before persistence.
func (v *OracleVote) Validate() error {
	if !ValidOutcome(v.Outcome) {
		return ErrInvalidOutcome
	}
	return nil
}

// ConsensusDecision is the persisted outcome of the first evaluation that
// crossed the threshold. Once a row exists, later votes are rejected and
// re-evaluation returns the stored decision unchanged.
type ConsensusDecision struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"market_id"`
	Outcome  int16     `gorm:"type:smallint;not null" json:"outcome"`
	YesVotes int       `gorm:"not null" json:"yes_votes"`
	NoVotes  int       `gorm:"not null" json:"no_votes"`

	DecidedAt time.Time `gorm:"autoCreateTime" json:"decided_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ConsensusDecision model
func (*ConsensusDecision) TableName() string {
	return "consensus_decisions"
}

func (d *ConsensusDecision) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
