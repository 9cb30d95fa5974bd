// internal/services/product_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

type ProductServiceSuite struct {
	LedgerSuite
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceSuite))
}

func (s *ProductServiceSuite) TestRegisterRequiresManufacturerRole() {
	req := &RegisterProductRequest{
		Name:      "Widget A",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	_, err := s.products.Register(s.distributor, req)
	s.True(ledger.IsUnauthorized(err))

	_, err = s.products.Register(s.auditor, req)
	s.True(ledger.IsUnauthorized(err))

	_, err = s.products.Register(s.admin, req)
	s.True(ledger.IsUnauthorized(err))

	var count int64
	s.NoError(s.db.Model(&models.Product{}).Count(&count).Error)
	s.EqualValues(0, count)
}

func (s *ProductServiceSuite) TestRegisterRejectsPastExpiry() {
	_, err := s.products.Register(s.manufacturer, &RegisterProductRequest{
		Name:      "Expired Widget",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	s.True(ledger.IsInvalidInput(err))
}

func (s *ProductServiceSuite) TestRegisterSeedsLogAndChain() {
	product := s.registerWidget("Widget A")

	s.Equal(ledger.StateManufactured, product.State)
	s.Equal(s.manufacturer, product.ManufacturerID)

	var checkpoints []models.Checkpoint
	s.NoError(s.db.Where("product_id = ?", product.ID).Order("seq ASC").Find(&checkpoints).Error)
	s.Require().Len(checkpoints, 1)
	s.Equal(0, checkpoints[0].Seq)
	s.Equal("origin", checkpoints[0].Location)
	s.Equal(ledger.StateManufactured, checkpoints[0].State)
	s.Equal(s.manufacturer, checkpoints[0].HandlerID)

	var owners []models.OwnershipEntry
	s.NoError(s.db.Where("product_id = ?", product.ID).Order("seq ASC").Find(&owners).Error)
	s.Require().Len(owners, 1)
	s.Equal(0, owners[0].Seq)
	s.Equal(s.manufacturer, owners[0].OwnerID)

	s.Equal(1, s.eventCount(ledger.EventProductRegistered))
}

func (s *ProductServiceSuite) TestVerifyUnknownProduct() {
	authentic, err := s.products.Verify(9999)
	s.NoError(err)
	s.False(authentic)
}

func (s *ProductServiceSuite) TestVerifyAuthenticProduct() {
	product := s.registerWidget("Widget A")

	authentic, err := s.products.Verify(product.ID)
	s.NoError(err)
	s.True(authentic)
}

func (s *ProductServiceSuite) TestRecallMarksVerifyFalseForever() {
	product := s.registerWidget("Widget A")

	s.NoError(s.products.Recall(s.manufacturer, product.ID, &RecallProductRequest{
		Reason: "contaminated batch",
	}))

	authentic, err := s.products.Verify(product.ID)
	s.NoError(err)
	s.False(authentic)

	// A later checkpoint can move the current state off recalled, but the
	// recall stays visible in the log and verification never recovers.
	_, err = s.checkpoints.Add(s.manufacturer, product.ID, &AddCheckpointRequest{
		Location: "Factory",
		State:    ledger.StateSold,
	})
	s.NoError(err)

	var fresh models.Product
	s.NoError(s.db.First(&fresh, product.ID).Error)
	s.Equal(ledger.StateSold, fresh.State)

	authentic, err = s.products.Verify(product.ID)
	s.NoError(err)
	s.False(authentic)
}

func (s *ProductServiceSuite) TestRecallIsIdempotent() {
	product := s.registerWidget("Widget A")

	s.NoError(s.products.Recall(s.manufacturer, product.ID, &RecallProductRequest{Reason: "bad batch"}))
	s.NoError(s.products.Recall(s.manufacturer, product.ID, &RecallProductRequest{Reason: "bad batch"}))

	var recalls int64
	s.NoError(s.db.Model(&models.Checkpoint{}).
		Where("product_id = ? AND state = ?", product.ID, ledger.StateRecalled).
		Count(&recalls).Error)
	s.EqualValues(2, recalls)
	s.Equal(2, s.eventCount(ledger.EventProductRecalled))

	cp := s.latestCheckpoint(product.ID)
	s.Equal("Recalled", cp.Location)
	s.Equal("bad batch", cp.Notes)
}

func (s *ProductServiceSuite) TestRecallRequiresManufacturerRole() {
	product := s.registerWidget("Widget A")

	err := s.products.Recall(s.distributor, product.ID, &RecallProductRequest{Reason: "not mine"})
	s.True(ledger.IsUnauthorized(err))

	err = s.products.Recall(s.auditor, product.ID, &RecallProductRequest{Reason: "not mine"})
	s.True(ledger.IsUnauthorized(err))
}

func (s *ProductServiceSuite) TestRecallUnknownProduct() {
	err := s.products.Recall(s.manufacturer, 424242, &RecallProductRequest{Reason: "ghost"})
	s.True(ledger.IsNotFound(err))
}
