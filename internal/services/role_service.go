// internal/services/role_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

// RoleService is the role registry: the leaf dependency every authorization
// check goes through. A false HasRole result is an authorization failure for
// the caller, never a fatal error. Nothing prevents revoking the last admin;
// administrative lockout is a documented operational risk.
type RoleService struct {
	core *Ledger
}

func NewRoleService(core *Ledger) *RoleService {
	return &RoleService{core: core}
}

func (s *RoleService) GrantRole(callerID, principalID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ledger.ErrInvalidInput, role)
	}
	if !s.HasRole(callerID, models.RoleAdmin) {
		return fmt.Errorf("%w: only admins may grant roles", ledger.ErrUnauthorized)
	}

	var principal models.Principal
	if err := s.core.DB().First(&principal, "id = ?", principalID).Error; err != nil {
		return fmt.Errorf("%w: principal %s", ledger.ErrNotFound, principalID)
	}

	return s.core.MutateUnguarded(func(tx *gorm.DB, emit func(ledger.Event)) error {
		grant := models.RoleGrant{
			PrincipalID: principalID,
			Role:        role,
			GrantedBy:   callerID,
		}
		return tx.Where("principal_id = ? AND role = ?", principalID, role).
			FirstOrCreate(&grant).Error
	})
}

func (s *RoleService) RevokeRole(callerID, principalID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ledger.ErrInvalidInput, role)
	}
	if !s.HasRole(callerID, models.RoleAdmin) {
		return fmt.Errorf("%w: only admins may revoke roles", ledger.ErrUnauthorized)
	}

	return s.core.MutateUnguarded(func(tx *gorm.DB, emit func(ledger.Event)) error {
		return tx.Where("principal_id = ? AND role = ?", principalID, role).
			Delete(&models.RoleGrant{}).Error
	})
}

// Role checks fail closed: a query failure logs and reads as unauthorized.
func (s *RoleService) HasRole(principalID uuid.UUID, role models.Role) bool {
	var count int64
	if err := s.core.DB().Model(&models.RoleGrant{}).
		Where("principal_id = ? AND role = ?", principalID, role).
		Count(&count).Error; err != nil {
		logrus.WithError(err).WithField("principal_id", principalID).
			Error("Failed to query role grants")
		return false
	}
	return count > 0
}

func (s *RoleService) HasAnyRole(principalID uuid.UUID, roles ...models.Role) bool {
	var count int64
	if err := s.core.DB().Model(&models.RoleGrant{}).
		Where("principal_id = ? AND role IN ?", principalID, roles).
		Count(&count).Error; err != nil {
		logrus.WithError(err).WithField("principal_id", principalID).
			Error("Failed to query role grants")
		return false
	}
	return count > 0
}

func (s *RoleService) RolesOf(principalID uuid.UUID) ([]models.Role, error) {
	var grants []models.RoleGrant
	if err := s.core.DB().Where("principal_id = ?", principalID).
		Order("role").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch role grants: %w", err)
	}

	roles := make([]models.Role, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, g.Role)
	}
	return roles, nil
}
