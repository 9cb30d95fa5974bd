// internal/services/escrow_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

type EscrowServiceSuite struct {
	LedgerSuite
}

func TestEscrowServiceSuite(t *testing.T) {
	suite.Run(t, new(EscrowServiceSuite))
}

func (s *EscrowServiceSuite) TestEscrowRequiresProduct() {
	_, err := s.escrow.Escrow(s.distributor, 90210, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.True(ledger.IsNotFound(err))
}

func (s *EscrowServiceSuite) TestEscrowRejectsNonPositiveAmount() {
	product := s.registerWidget("Widget A")

	_, err := s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  0,
	})
	s.True(ledger.IsInvalidInput(err))

	_, err = s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  -50,
	})
	s.True(ledger.IsInvalidInput(err))
}

func (s *EscrowServiceSuite) TestReleaseMovesValue() {
	product := s.registerWidget("Widget A")

	_, err := s.bank.Deposit(s.admin, s.distributor, 250)
	s.Require().NoError(err)

	_, err = s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.escrow.Release(s.distributor, product.ID))

	payerBalance, err := s.bank.Balance(s.distributor)
	s.Require().NoError(err)
	s.EqualValues(150, payerBalance)

	payeeBalance, err := s.bank.Balance(s.manufacturer)
	s.Require().NoError(err)
	s.EqualValues(100, payeeBalance)

	payment, err := s.escrow.Get(product.ID)
	s.Require().NoError(err)
	s.True(payment.Released)
	s.NotNil(payment.ReleasedAt)

	s.Equal(1, s.eventCount(ledger.EventPaymentEscrowed))
	s.Equal(1, s.eventCount(ledger.EventPaymentReleased))
}

func (s *EscrowServiceSuite) TestDoubleReleaseFails() {
	product := s.registerWidget("Widget A")

	_, err := s.bank.Deposit(s.admin, s.distributor, 250)
	s.Require().NoError(err)

	_, err = s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.escrow.Release(s.distributor, product.ID))

	err = s.escrow.Release(s.distributor, product.ID)
	s.True(errors.Is(err, ledger.ErrAlreadyReleased))

	// Balances unchanged by the failed second release.
	payeeBalance, err := s.bank.Balance(s.manufacturer)
	s.Require().NoError(err)
	s.EqualValues(100, payeeBalance)
}

func (s *EscrowServiceSuite) TestReleaseByAuditor() {
	product := s.registerWidget("Widget A")

	_, err := s.bank.Deposit(s.admin, s.distributor, 100)
	s.Require().NoError(err)

	_, err = s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	s.NoError(s.escrow.Release(s.auditor, product.ID))
}

func (s *EscrowServiceSuite) TestReleaseByStrangerDenied() {
	product := s.registerWidget("Widget A")

	_, err := s.bank.Deposit(s.admin, s.distributor, 100)
	s.Require().NoError(err)

	_, err = s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	err = s.escrow.Release(s.retailer, product.ID)
	s.True(ledger.IsUnauthorized(err))

	payment, err := s.escrow.Get(product.ID)
	s.Require().NoError(err)
	s.False(payment.Released)
}

func (s *EscrowServiceSuite) TestReleaseRollsBackOnTransferFailure() {
	product := s.registerWidget("Widget A")

	// Payer never funded: the value transfer fails and the release must roll
	// back as one unit, leaving the payment claimable once funds exist.
	_, err := s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	err = s.escrow.Release(s.distributor, product.ID)
	s.True(errors.Is(err, ledger.ErrTransferFailed))

	payment, err := s.escrow.Get(product.ID)
	s.Require().NoError(err)
	s.False(payment.Released)
	s.Nil(payment.ReleasedAt)
	s.Equal(0, s.eventCount(ledger.EventPaymentReleased))

	_, err = s.bank.Deposit(s.admin, s.distributor, 100)
	s.Require().NoError(err)
	s.NoError(s.escrow.Release(s.distributor, product.ID))
}

func (s *EscrowServiceSuite) TestEscrowSlotOverwrite() {
	product := s.registerWidget("Widget A")

	_, err := s.escrow.Escrow(s.distributor, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  100,
	})
	s.Require().NoError(err)

	// Second escrow replaces the slot; the first payer's claim is gone.
	_, err = s.escrow.Escrow(s.retailer, product.ID, &EscrowRequest{
		PayeeID: s.manufacturer,
		Amount:  60,
	})
	s.Require().NoError(err)

	payment, err := s.escrow.Get(product.ID)
	s.Require().NoError(err)
	s.Equal(s.retailer, payment.PayerID)
	s.EqualValues(60, payment.Amount)

	var count int64
	s.NoError(s.db.Model(&models.EscrowPayment{}).
		Where("product_id = ?", product.ID).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *EscrowServiceSuite) TestReleaseWithoutEscrow() {
	product := s.registerWidget("Widget A")

	err := s.escrow.Release(s.distributor, product.ID)
	s.True(errors.Is(err, ledger.ErrNoEscrow))
}

func (s *EscrowServiceSuite) TestDepositRequiresAdmin() {
	_, err := s.bank.Deposit(s.distributor, s.distributor, 100)
	s.True(ledger.IsUnauthorized(err))
}

func (s *EscrowServiceSuite) TestBalanceOfUnfundedPrincipal() {
	balance, err := s.bank.Balance(s.retailer)
	s.NoError(err)
	s.EqualValues(0, balance)
}
