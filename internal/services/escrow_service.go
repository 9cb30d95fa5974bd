// internal/services/escrow_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// ValueTransferrer moves value between principals inside a release. It runs
// inside the release transaction: a returned error aborts the whole unit.
type ValueTransferrer interface {
	Transfer(tx *gorm.DB, from, to uuid.UUID, amount int64) error
}

// EscrowService holds at most one pending payment per product. The slot is
// overwritable: a second escrow call while one is pending replaces the prior
// record and silently discards that payer's claim. It is a slot, not a queue.
type EscrowService struct {
	core        *Ledger
	roleService *RoleService
	transferrer ValueTransferrer
}

type EscrowRequest struct {
	PayeeID uuid.UUID `json:"payee_id" validate:"required"`
	Amount  int64     `json:"amount" validate:"required,min=1"`
}

func NewEscrowService(core *Ledger, roleService *RoleService, transferrer ValueTransferrer) *EscrowService {
	return &EscrowService{
		core:        core,
		roleService: roleService,
		transferrer: transferrer,
	}
}

func (s *EscrowService) Escrow(payerID uuid.UUID, productID uint64, req *EscrowRequest) (*models.EscrowPayment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}
	if req.PayeeID == uuid.Nil {
		return nil, fmt.Errorf("%w: payee must be a valid principal", ledger.ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidInput)
	}

	var payment *models.EscrowPayment
	err := s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		now := s.core.Now()
		payment = &models.EscrowPayment{
			ProductID:  productID,
			Amount:     req.Amount,
			PayerID:    payerID,
			PayeeID:    req.PayeeID,
			Released:   false,
			ReleasedAt: nil,
			CreatedAt:  now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			UpdateAll: true,
		}).Create(payment).Error; err != nil {
			return fmt.Errorf("failed to store escrow payment: %w", err)
		}

		emit(ledger.Event{
			Type:      ledger.EventPaymentEscrowed,
			ProductID: productID,
			Actor:     payerID,
			At:        now,
			Data: map[string]interface{}{
				"payee":  req.PayeeID.String(),
				"amount": req.Amount,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *EscrowService) Release(callerID uuid.UUID, productID uint64) error {
	return s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var payment models.EscrowPayment
		if err := tx.First(&payment, "product_id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ledger.ErrNoEscrow, productID)
			}
			return fmt.Errorf("database error: %w", err)
		}
		if payment.Amount <= 0 {
			return fmt.Errorf("%w: product %d", ledger.ErrNoEscrow, productID)
		}
		if payment.Released {
			return fmt.Errorf("%w: product %d", ledger.ErrAlreadyReleased, productID)
		}

		if callerID != payment.PayerID && !s.roleService.HasRole(callerID, models.RoleAuditor) {
			return fmt.Errorf("%w: only the payer or an auditor may release", ledger.ErrUnauthorized)
		}

		now := s.core.Now()

		// The released flag flips before value moves so a reentrant release
		// triggered by the transfer cannot observe an unreleased payment. A
		// transfer failure aborts the transaction and rolls the flag back:
		// the two effects are one atomic unit.
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"released":    true,
			"released_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to mark escrow released: %w", err)
		}

		if err := s.transferrer.Transfer(tx, payment.PayerID, payment.PayeeID, payment.Amount); err != nil {
			return fmt.Errorf("%w: %v", ledger.ErrTransferFailed, err)
		}

		emit(ledger.Event{
			Type:      ledger.EventPaymentReleased,
			ProductID: productID,
			Actor:     callerID,
			At:        now,
			Data: map[string]interface{}{
				"payer":  payment.PayerID.String(),
				"payee":  payment.PayeeID.String(),
				"amount": payment.Amount,
			},
		})
		return nil
	})
}

func (s *EscrowService) Get(productID uint64) (*models.EscrowPayment, error) {
	var payment models.EscrowPayment
	if err := s.core.DB().Preload("Payer").Preload("Payee").
		First(&payment, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ledger.ErrNoEscrow, productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &payment, nil
}
