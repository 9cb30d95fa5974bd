// internal/models/escrow.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EscrowPayment is the single payment slot per product. A second escrow call
// while one is pending overwrites the record; this is a designed slot, not a
// queue, and the overwrite silently discards the prior payer's claim.
type EscrowPayment struct {
	ProductID  uint64     `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	Amount     int64      `json:"amount" gorm:"not null"`
	PayerID    uuid.UUID  `json:"payer_id" gorm:"type:uuid;not null;index"`
	PayeeID    uuid.UUID  `json:"payee_id" gorm:"type:uuid;not null;index"`
	Released   bool       `json:"released" gorm:"not null;default:false"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relationships
	Payer Principal `json:"payer,omitempty" gorm:"foreignKey:PayerID"`
	Payee Principal `json:"payee,omitempty" gorm:"foreignKey:PayeeID"`
}

// Account holds a principal's ledger balance, in minor currency units. Used by
// the default value transferrer behind escrow release.
type Account struct {
	PrincipalID uuid.UUID `json:"principal_id" gorm:"type:uuid;primaryKey"`
	Balance     int64     `json:"balance" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
