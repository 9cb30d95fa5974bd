// internal/services/ownership_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

const transferNotes = "Ownership transferred"

// OwnershipService maintains the per-product custody chain. Transfer is the
// only operation that checks owner identity in addition to role.
type OwnershipService struct {
	core        *Ledger
	roleService *RoleService
}

type TransferOwnershipRequest struct {
	NewOwnerID uuid.UUID           `json:"new_owner_id" validate:"required"`
	Location   string              `json:"location" validate:"required,max=255"`
	NewState   ledger.ProductState `json:"new_state" validate:"required"`
}

func NewOwnershipService(core *Ledger, roleService *RoleService) *OwnershipService {
	return &OwnershipService{core: core, roleService: roleService}
}

func (s *OwnershipService) Transfer(callerID uuid.UUID, productID uint64, req *TransferOwnershipRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}
	if req.NewOwnerID == uuid.Nil {
		return fmt.Errorf("%w: new owner must be a valid principal", ledger.ErrInvalidInput)
	}

	if !s.roleService.HasAnyRole(callerID, models.OperatingRoles...) {
		return fmt.Errorf("%w: transfer requires an operating role", ledger.ErrUnauthorized)
	}

	return s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		owner, err := currentOwner(tx, productID)
		if err != nil {
			return err
		}
		if owner.OwnerID != callerID {
			return fmt.Errorf("%w: caller is not the current owner", ledger.ErrUnauthorized)
		}

		if err := s.core.ValidateTransition(product.State, req.NewState); err != nil {
			return err
		}

		now := s.core.Now()

		if err := tx.Model(&product).Update("state", req.NewState).Error; err != nil {
			return fmt.Errorf("failed to update product state: %w", err)
		}

		cpSeq, err := nextCheckpointSeq(tx, productID)
		if err != nil {
			return err
		}
		checkpoint := &models.Checkpoint{
			ProductID:  productID,
			Seq:        cpSeq,
			HandlerID:  callerID,
			Location:   req.Location,
			State:      req.NewState,
			Notes:      transferNotes,
			RecordedAt: now,
		}
		if err := tx.Create(checkpoint).Error; err != nil {
			return fmt.Errorf("failed to append checkpoint: %w", err)
		}

		ownSeq, err := nextOwnershipSeq(tx, productID)
		if err != nil {
			return err
		}
		entry := &models.OwnershipEntry{
			ProductID:  productID,
			Seq:        ownSeq,
			OwnerID:    req.NewOwnerID,
			RecordedAt: now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append ownership entry: %w", err)
		}

		emit(ledger.Event{
			Type:      ledger.EventOwnershipTransferred,
			ProductID: productID,
			Actor:     callerID,
			At:        now,
			Data: map[string]interface{}{
				"from": callerID.String(),
				"to":   req.NewOwnerID.String(),
			},
		})
		emit(ledger.Event{
			Type:      ledger.EventCheckpointAdded,
			ProductID: productID,
			Actor:     callerID,
			At:        now,
			Data: map[string]interface{}{
				"location": req.Location,
				"state":    string(req.NewState),
			},
		})
		return nil
	})
}

func (s *OwnershipService) History(productID uint64) ([]models.OwnershipEntry, error) {
	var product models.Product
	if err := s.core.DB().First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var entries []models.OwnershipEntry
	if err := s.core.DB().Where("product_id = ?", productID).
		Order("seq ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ownership chain: %w", err)
	}
	return entries, nil
}

func (s *OwnershipService) CurrentOwner(productID uint64) (*models.OwnershipEntry, error) {
	return currentOwner(s.core.DB(), productID)
}

func currentOwner(db *gorm.DB, productID uint64) (*models.OwnershipEntry, error) {
	var entry models.OwnershipEntry
	if err := db.Where("product_id = ?", productID).
		Order("seq DESC").First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ownership chain for product %d", ledger.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to fetch current owner: %w", err)
	}
	return &entry, nil
}
