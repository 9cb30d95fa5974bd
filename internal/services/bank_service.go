// internal/services/bank_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

// BankService is the default value transferrer: principal balances held in
// the accounts table, debited and credited inside the caller's transaction.
type BankService struct {
	core        *Ledger
	roleService *RoleService
}

func NewBankService(core *Ledger, roleService *RoleService) *BankService {
	return &BankService{core: core, roleService: roleService}
}

func (s *BankService) Transfer(tx *gorm.DB, from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}

	var payerAccount models.Account
	if err := tx.First(&payerAccount, "principal_id = ?", from).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payer has no funded account")
		}
		return fmt.Errorf("failed to load payer account: %w", err)
	}
	if payerAccount.Balance < amount {
		return fmt.Errorf("insufficient funds: balance %d, need %d", payerAccount.Balance, amount)
	}

	if err := tx.Model(&models.Account{}).
		Where("principal_id = ?", from).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit payer: %w", err)
	}

	payeeAccount := models.Account{PrincipalID: to}
	if err := tx.Where("principal_id = ?", to).FirstOrCreate(&payeeAccount).Error; err != nil {
		return fmt.Errorf("failed to load payee account: %w", err)
	}
	if err := tx.Model(&models.Account{}).
		Where("principal_id = ?", to).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit payee: %w", err)
	}

	return nil
}

// Deposit credits a principal's account. Admin only; the funding faucet for
// escrow flows.
func (s *BankService) Deposit(callerID, principalID uuid.UUID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidInput)
	}
	if !s.roleService.HasRole(callerID, models.RoleAdmin) {
		return nil, fmt.Errorf("%w: only admins may deposit", ledger.ErrUnauthorized)
	}

	var account models.Account
	err := s.core.MutateUnguarded(func(tx *gorm.DB, emit func(ledger.Event)) error {
		account = models.Account{PrincipalID: principalID}
		if err := tx.Where("principal_id = ?", principalID).FirstOrCreate(&account).Error; err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if err := tx.Model(&models.Account{}).
			Where("principal_id = ?", principalID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}
		return tx.First(&account, "principal_id = ?", principalID).Error
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *BankService) Balance(principalID uuid.UUID) (int64, error) {
	var account models.Account
	if err := s.core.DB().First(&account, "principal_id = ?", principalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return account.Balance, nil
}
