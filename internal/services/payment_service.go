// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/config"
	"github.com/tracelink/provenance-backend/internal/models"
)

// StripeTransferrer moves escrow value between the connected Stripe accounts
// of the two principals. Selected with PAYMENT_PROVIDER=stripe; the default
// deployment uses BankService instead.
//
// The database flag flip still precedes the Stripe call, and a Stripe failure
// aborts the surrounding transaction, so release stays all-or-nothing on the
// ledger side.
type StripeTransferrer struct {
	currency string
}

func NewStripeTransferrer(cfg *config.Config) *StripeTransferrer {
	stripe.Key = cfg.Payment.StripeSecretKey

	currency := cfg.Payment.Currency
	if currency == "" {
		currency = "usd"
	}
	return &StripeTransferrer{currency: currency}
}

func (s *StripeTransferrer) Transfer(tx *gorm.DB, from, to uuid.UUID, amount int64) error {
	var payee models.Principal
	if err := tx.First(&payee, "id = ?", to).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payee principal not found")
		}
		return fmt.Errorf("failed to load payee: %w", err)
	}
	if payee.StripeAccountID == "" {
		return fmt.Errorf("payee has no connected payout account")
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(s.currency),
		Destination: stripe.String(payee.StripeAccountID),
	}
	params.AddMetadata("payer_principal", from.String())
	params.AddMetadata("payee_principal", to.String())

	if _, err := transfer.New(params); err != nil {
		return fmt.Errorf("stripe transfer failed: %w", err)
	}

	return nil
}
