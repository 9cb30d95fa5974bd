// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Setting struct {
	BaseModel
	Category    string    `json:"category" gorm:"size:50;not null;index"`
	Key         string    `json:"key" gorm:"size:100;not null;index"`
	Value       JSONB     `json:"value" gorm:"type:jsonb;not null"`
	DataType    string    `json:"data_type" gorm:"size:20;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type AuditLog struct {
	BaseModel
	PrincipalID  *uuid.UUID `json:"principal_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string     `json:"resource_id" gorm:"size:64;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// LedgerEvent is the persisted form of a committed ledger notification,
// serving the event feed endpoint.
type LedgerEvent struct {
	ID        uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	Type      string         `json:"type" gorm:"type:varchar(50);not null;index"`
	ProductID uint64         `json:"product_id" gorm:"not null;index"`
	ActorID   uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null;index"`
	Payload   JSONB          `json:"payload" gorm:"type:jsonb"`
	Tags      pq.StringArray `json:"tags" gorm:"type:text[]"`
	EmittedAt time.Time      `json:"emitted_at" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
}
