// internal/services/suite_test.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

// LedgerSuite wires the full service graph against an in-memory database, one
// fresh database per test. Events emitted through the core are captured in
// s.events for assertions.
type LedgerSuite struct {
	suite.Suite
	db     *gorm.DB
	core   *Ledger
	events []ledger.Event

	roles       *RoleService
	products    *ProductService
	checkpoints *CheckpointService
	ownership   *OwnershipService
	bank        *BankService
	escrow      *EscrowService
	breaker     *BreakerService
	settings    *SettingsService

	admin        uuid.UUID
	manufacturer uuid.UUID
	distributor  uuid.UUID
	retailer     uuid.UUID
	auditor      uuid.UUID
}

func (s *LedgerSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	s.Require().NoError(db.AutoMigrate(
		&models.Principal{},
		&models.RoleGrant{},
		&models.Product{},
		&models.Checkpoint{},
		&models.OwnershipEntry{},
		&models.EscrowPayment{},
		&models.Account{},
		&models.Setting{},
	))

	s.db = db
	s.events = nil
	sink := ledger.SinkFunc(func(e ledger.Event) {
		s.events = append(s.events, e)
	})
	s.core = NewLedger(db, nil, sink, nil)

	s.roles = NewRoleService(s.core)
	s.products = NewProductService(s.core, s.roles, "", "")
	s.checkpoints = NewCheckpointService(s.core, s.roles)
	s.ownership = NewOwnershipService(s.core, s.roles)
	s.bank = NewBankService(s.core, s.roles)
	s.escrow = NewEscrowService(s.core, s.roles, s.bank)
	s.breaker = NewBreakerService(s.core, s.roles)
	s.settings = NewSettingsService(s.core, s.roles)

	s.admin = s.newPrincipal("root_admin", models.RoleAdmin)
	s.manufacturer = s.newPrincipal("acme_mfg", models.RoleManufacturer)
	s.distributor = s.newPrincipal("midway_dist", models.RoleDistributor)
	s.retailer = s.newPrincipal("corner_shop", models.RoleRetailer)
	s.auditor = s.newPrincipal("state_auditor", models.RoleAuditor)
}

// newPrincipal inserts a principal and its role grants directly; role
// bootstrapping is not what these tests exercise.
func (s *LedgerSuite) newPrincipal(username string, roles ...models.Role) uuid.UUID {
	principal := models.Principal{
		Username: username,
		Email:    username + "@test.local",
		Status:   models.PrincipalStatusActive,
	}
	s.Require().NoError(principal.SetPassword("test-password-1"))
	s.Require().NoError(s.db.Create(&principal).Error)

	for _, role := range roles {
		grant := models.RoleGrant{
			PrincipalID: principal.ID,
			Role:        role,
			GrantedBy:   principal.ID,
		}
		s.Require().NoError(s.db.Create(&grant).Error)
	}
	return principal.ID
}

// registerWidget registers a product as the suite manufacturer.
func (s *LedgerSuite) registerWidget(name string) *models.Product {
	product, err := s.products.Register(s.manufacturer, &RegisterProductRequest{
		Name:      name,
		ExpiresAt: time.Now().Add(365 * 24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().NotNil(product)
	return product
}

func (s *LedgerSuite) eventCount(eventType ledger.EventType) int {
	n := 0
	for _, e := range s.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (s *LedgerSuite) latestCheckpoint(productID uint64) models.Checkpoint {
	var cp models.Checkpoint
	s.Require().NoError(s.db.Where("product_id = ?", productID).
		Order("seq DESC").First(&cp).Error)
	return cp
}
