// internal/models/principal.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Principal is an authenticated identity capable of holding roles and being a
// party to transfers and payments.
type Principal struct {
	BaseModel
	Username     string          `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string          `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string          `json:"-" gorm:"size:255;not null"`
	Status       PrincipalStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	// Connected payout account for the Stripe value transferrer; empty when
	// the deployment settles through internal accounts.
	StripeAccountID string     `json:"-" gorm:"size:255"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	RoleGrants []RoleGrant `json:"role_grants,omitempty" gorm:"foreignKey:PrincipalID"`
}

func (p *Principal) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hashedPassword)
	return nil
}

func (p *Principal) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
}

// RoleGrant is one entry of the role registry: principal -> role, set
// semantics enforced by the composite unique index.
type RoleGrant struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	PrincipalID uuid.UUID `json:"principal_id" gorm:"type:uuid;not null;uniqueIndex:idx_role_grants_principal_role"`
	Role        Role      `json:"role" gorm:"type:varchar(20);not null;uniqueIndex:idx_role_grants_principal_role"`
	GrantedBy   uuid.UUID `json:"granted_by" gorm:"type:uuid;not null"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Principal Principal `json:"principal,omitempty" gorm:"foreignKey:PrincipalID"`
}
