// internal/services/breaker_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
)

// BreakerService controls the process-wide halt flag. While halted, every
// mutating ledger operation fails with SystemHalted and reads stay available.
// Pause and unpause bypass the halt gate themselves; otherwise an engaged
// breaker could never be disengaged.
type BreakerService struct {
	core        *Ledger
	roleService *RoleService
}

func NewBreakerService(core *Ledger, roleService *RoleService) *BreakerService {
	return &BreakerService{core: core, roleService: roleService}
}

// LoadFromSettings restores the persisted halt flag at startup.
func (s *BreakerService) LoadFromSettings() error {
	var setting models.Setting
	err := s.core.DB().Where("category = ? AND key = ?", "ledger", "halted").First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("failed to load breaker setting: %w", err)
	}

	if halted, ok := setting.Value["value"].(bool); ok {
		s.core.SetHalted(halted)
		if halted {
			logrus.Warn("Ledger starting in halted state")
		}
	}
	return nil
}

func (s *BreakerService) Pause(callerID uuid.UUID) error {
	return s.setHalted(callerID, true)
}

func (s *BreakerService) Unpause(callerID uuid.UUID) error {
	return s.setHalted(callerID, false)
}

func (s *BreakerService) Halted() bool {
	return s.core.Halted()
}

func (s *BreakerService) setHalted(callerID uuid.UUID, halted bool) error {
	if !s.roleService.HasRole(callerID, models.RoleAdmin) {
		return fmt.Errorf("%w: only admins may operate the circuit breaker", ledger.ErrUnauthorized)
	}

	// The flag flips inside the committed hook, while the writer lock is
	// still held, so an operation queued behind this one cannot pass the
	// halt check after the settings row already says halted.
	err := s.core.MutateUnguardedThen(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var setting models.Setting
		err := tx.Where("category = ? AND key = ?", "ledger", "halted").First(&setting).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return fmt.Errorf("failed to load breaker setting: %w", err)
			}
			setting = models.Setting{
				Category:    "ledger",
				Key:         "halted",
				DataType:    "boolean",
				Description: "Circuit breaker flag suspending all mutating operations",
			}
		}
		setting.Value = models.JSONB{"value": halted}
		setting.UpdatedBy = callerID
		return tx.Save(&setting).Error
	}, func() {
		s.core.SetHalted(halted)
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"halted": halted,
		"by":     callerID,
	}).Warn("Circuit breaker state changed")
	return nil
}
