package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Outcome codes for binary markets.
const (
	OutcomeNo  int16 = 0
	OutcomeYes int16 = 1
)

// ValidOutcome reports whether o is a binary outcome code.
func ValidOutcome(o int16) bool {
	return o == OutcomeNo || o == OutcomeYes
}

// MarketStatus represents the lifecycle phase of a market.
// Transitions are forward-only: open -> closed -> resolved.
type MarketStatus string

const (
	MarketStatusOpen     MarketStatus = "open"
	MarketStatusClosed   MarketStatus = "closed"
	MarketStatusResolved MarketStatus = "resolved"
)

var marketRefPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidMarketRef reports whether ref is a lowercase hex encoding of a
// 32-byte market identifier.
func ValidMarketRef(ref string) bool {
	return marketRefPattern.MatchString(ref)
}

// Market carries the settlement lifecycle for one binary market. Registry
// metadata (title, category, pagination) lives outside this core; the row
// holds only what the timing gates and payout math need.
type Market struct {
	ID             uuid.UUID    `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Ref            string       `gorm:"type:char(64);not null;uniqueIndex" json:"ref"`
	CreatorID      uuid.UUID    `gorm:"type:uuid;not null" json:"creator_id"`
	Status         MarketStatus `gorm:"type:varchar(16);not null;default:'open'" json:"status"`
	ClosingTime    time.Time    `gorm:"not null" json:"closing_time"`
	ResolutionTime time.Time    `gorm:"not null" json:"resolution_time"`

	// Set exactly once at resolution, never rewritten.
	WinningOutcome *int16           `gorm:"type:smallint" json:"winning_outcome,omitempty"`
	WinnerPool     *decimal.Decimal `gorm:"type:numeric(39,0)" json:"winner_pool,omitempty"`
	LoserPool      *decimal.Decimal `gorm:"type:numeric(39,0)" json:"loser_pool,omitempty"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Market model
func (*Market) TableName() string {
	return "markets"
}

func (m *Market) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Validate checks the market fields before persistence.
func (m *Market) Validate() error {
	if !ValidMarketRef(m.Ref) {
		return ErrInvalidMarketRef
	}
	if m.ClosingTime.IsZero() {
		return ErrInvalidCloseTime
	}
	if m.ResolutionTime.IsZero() || m.ResolutionTime.Before(m.ClosingTime) {
		return ErrInvalidResolveTime
	}
	return nil
}

// IsOpen reports whether the market still accepts positions.
func (m *Market) IsOpen() bool {
	return m.Status == MarketStatusOpen
}

// IsResolved reports whether the market has a final outcome.
func (m *Market) IsResolved() bool {
	return m.Status == MarketStatusResolved
}

// CanClose checks the timing gate for the open -> closed transition.
func (m *Market) CanClose(now time.Time) error {
	if m.Status != MarketStatusOpen {
		return ErrMarketNotOpen
	}
	if now.Before(m.ClosingTime) {
		return ErrTooEarlyToClose
	}
	return nil
}

// CanResolve checks the timing and state gates for the closed -> resolved
// transition. Resolving twice or resolving from open both fail.
func (m *Market) CanResolve(now time.Time) error {
	if now.Before(m.ResolutionTime) {
		return ErrTooEarlyToResolve
	}
	switch m.Status {
	case MarketStatusOpen:
		return ErrMarketNotClosed
	case MarketStatusResolved:
		return ErrMarketAlreadyResolved
	}
	return nil
}
