// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tracelink/provenance-backend/internal/ledger"
)

// Product is the canonical record of one tracked good. Ids are allocated by
// the database sequence, monotonically increasing and never reused. Products
// are never deleted.
type Product struct {
	ID             uint64              `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string              `json:"name" gorm:"size:255;not null"`
	Description    string              `json:"description" gorm:"type:text"`
	ManufacturerID uuid.UUID           `json:"manufacturer_id" gorm:"type:uuid;not null;index"`
	ManufacturedAt time.Time           `json:"manufactured_at" gorm:"not null"`
	ExpiresAt      time.Time           `json:"expires_at" gorm:"not null"`
	BatchNumber    string              `json:"batch_number" gorm:"size:100;index"`
	DocumentHash   string              `json:"document_hash" gorm:"size:64"`
	State          ledger.ProductState `json:"state" gorm:"type:varchar(20);not null;index"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`

	// Relationships
	Manufacturer Principal        `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
	Checkpoints  []Checkpoint     `json:"checkpoints,omitempty" gorm:"foreignKey:ProductID"`
	Owners       []OwnershipEntry `json:"owners,omitempty" gorm:"foreignKey:ProductID"`
}

// Checkpoint is one immutable audit-log entry for a product. Append order is
// chronological order; rows are never updated or reordered.
type Checkpoint struct {
	ID           uint64              `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID    uint64              `json:"product_id" gorm:"not null;uniqueIndex:idx_checkpoints_product_seq,priority:1"`
	Seq          int                 `json:"seq" gorm:"not null;uniqueIndex:idx_checkpoints_product_seq,priority:2"`
	HandlerID    uuid.UUID           `json:"handler_id" gorm:"type:uuid;not null;index"`
	Location     string              `json:"location" gorm:"size:255;not null"`
	State        ledger.ProductState `json:"state" gorm:"type:varchar(20);not null"`
	Notes        string              `json:"notes" gorm:"type:text"`
	TemperatureC *float64            `json:"temperature_c,omitempty" gorm:"type:decimal(5,2)"`
	DocumentHash string              `json:"document_hash,omitempty" gorm:"size:64"`
	RecordedAt   time.Time           `json:"recorded_at" gorm:"not null"`

	// Relationships
	Handler Principal `json:"handler,omitempty" gorm:"foreignKey:HandlerID"`
}

// OwnershipEntry is one immutable append to a product's custody chain. The
// entry with the highest Seq is the authoritative current owner; Seq 0 is the
// registering manufacturer.
type OwnershipEntry struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID  uint64    `json:"product_id" gorm:"not null;uniqueIndex:idx_ownership_product_seq,priority:1"`
	Seq        int       `json:"seq" gorm:"not null;uniqueIndex:idx_ownership_product_seq,priority:2"`
	OwnerID    uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null"`

	// Relationships
	Owner Principal `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
