// internal/services/role_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

type RoleServiceSuite struct {
	LedgerSuite
}

func TestRoleServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleServiceSuite))
}

func (s *RoleServiceSuite) TestGrantRequiresAdmin() {
	err := s.roles.GrantRole(s.manufacturer, s.retailer, models.RoleDistributor)
	s.True(ledger.IsUnauthorized(err))
	s.False(s.roles.HasRole(s.retailer, models.RoleDistributor))
}

func (s *RoleServiceSuite) TestGrantAndRevoke() {
	s.Require().NoError(s.roles.GrantRole(s.admin, s.retailer, models.RoleDistributor))
	s.True(s.roles.HasRole(s.retailer, models.RoleDistributor))

	s.Require().NoError(s.roles.RevokeRole(s.admin, s.retailer, models.RoleDistributor))
	s.False(s.roles.HasRole(s.retailer, models.RoleDistributor))
	s.True(s.roles.HasRole(s.retailer, models.RoleRetailer))
}

func (s *RoleServiceSuite) TestGrantIsIdempotent() {
	s.Require().NoError(s.roles.GrantRole(s.admin, s.retailer, models.RoleAuditor))
	s.Require().NoError(s.roles.GrantRole(s.admin, s.retailer, models.RoleAuditor))

	var count int64
	s.NoError(s.db.Model(&models.RoleGrant{}).
		Where("principal_id = ? AND role = ?", s.retailer, models.RoleAuditor).
		Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *RoleServiceSuite) TestRevokeAbsentGrantIsNoop() {
	s.NoError(s.roles.RevokeRole(s.admin, s.retailer, models.RoleAuditor))
}

func (s *RoleServiceSuite) TestGrantRejectsUnknownRole() {
	err := s.roles.GrantRole(s.admin, s.retailer, models.Role("wizard"))
	s.True(ledger.IsInvalidInput(err))
}

func (s *RoleServiceSuite) TestGrantUnknownPrincipal() {
	err := s.roles.GrantRole(s.admin, uuid.New(), models.RoleAuditor)
	s.True(ledger.IsNotFound(err))
}

// A failing grant query must read as unauthorized, never as a grant.
func (s *RoleServiceSuite) TestRoleChecksFailClosedOnDatabaseError() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	s.False(s.roles.HasRole(s.admin, models.RoleAdmin))
	s.False(s.roles.HasAnyRole(s.manufacturer, models.OperatingRoles...))
}

func (s *RoleServiceSuite) TestRolesOf() {
	s.Require().NoError(s.roles.GrantRole(s.admin, s.retailer, models.RoleAuditor))

	roles, err := s.roles.RolesOf(s.retailer)
	s.Require().NoError(err)
	s.ElementsMatch([]models.Role{models.RoleRetailer, models.RoleAuditor}, roles)
}
