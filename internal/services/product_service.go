// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// ProductService is the product registry. Registration seeds the checkpoint
// log and the ownership chain in the same unit of work, so a registered
// product always has at least one checkpoint and a non-empty chain.
type ProductService struct {
	core           *Ledger
	roleService    *RoleService
	originLocation string
	recallLocation string
}

type RegisterProductRequest struct {
	Name         string    `json:"name" validate:"required,min=1,max=255"`
	Description  string    `json:"description,omitempty"`
	ExpiresAt    time.Time `json:"expires_at" validate:"required"`
	BatchNumber  string    `json:"batch_number,omitempty" validate:"omitempty,max=100"`
	DocumentHash string    `json:"document_hash,omitempty" validate:"omitempty,contenthash"`
}

type RecallProductRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

func NewProductService(core *Ledger, roleService *RoleService, originLocation, recallLocation string) *ProductService {
	if originLocation == "" {
		originLocation = "origin"
	}
	if recallLocation == "" {
		recallLocation = "Recalled"
	}
	return &ProductService{
		core:           core,
		roleService:    roleService,
		originLocation: originLocation,
		recallLocation: recallLocation,
	}
}

func (s *ProductService) Register(callerID uuid.UUID, req *RegisterProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	if !s.roleService.HasRole(callerID, models.RoleManufacturer) {
		return nil, fmt.Errorf("%w: only manufacturers may register products", ledger.ErrUnauthorized)
	}

	now := s.core.Now()
	if !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ledger.ErrInvalidInput)
	}

	var product *models.Product
	err := s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		product = &models.Product{
			Name:           req.Name,
			Description:    req.Description,
			ManufacturerID: callerID,
			ManufacturedAt: now,
			ExpiresAt:      req.ExpiresAt,
			BatchNumber:    req.BatchNumber,
			DocumentHash:   req.DocumentHash,
			State:          ledger.StateManufactured,
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		checkpoint := &models.Checkpoint{
			ProductID:  product.ID,
			Seq:        0,
			HandlerID:  callerID,
			Location:   s.originLocation,
			State:      ledger.StateManufactured,
			RecordedAt: now,
		}
		if err := tx.Create(checkpoint).Error; err != nil {
			return fmt.Errorf("failed to seed checkpoint log: %w", err)
		}

		entry := &models.OwnershipEntry{
			ProductID:  product.ID,
			Seq:        0,
			OwnerID:    callerID,
			RecordedAt: now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to seed ownership chain: %w", err)
		}

		emit(ledger.Event{
			Type:      ledger.EventProductRegistered,
			ProductID: product.ID,
			Actor:     callerID,
			At:        now,
			Data: map[string]interface{}{
				"name":         product.Name,
				"manufacturer": callerID.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *ProductService) Get(productID uint64) (*models.Product, error) {
	var product models.Product
	if err := s.core.DB().Preload("Manufacturer").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// Verify reports whether a product is registered and has never been pulled
// into the recalled state. Later checkpoint writes cannot resurrect a recalled
// product here: the checkpoint log is consulted, not just the current state.
func (s *ProductService) Verify(productID uint64) (bool, error) {
	var product models.Product
	if err := s.core.DB().First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database error: %w", err)
	}

	if product.State == ledger.StateRecalled {
		return false, nil
	}

	var recalled int64
	if err := s.core.DB().Model(&models.Checkpoint{}).
		Where("product_id = ? AND state = ?", productID, ledger.StateRecalled).
		Count(&recalled).Error; err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return recalled == 0, nil
}

func (s *ProductService) Recall(callerID uuid.UUID, productID uint64, req *RecallProductRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	if !s.roleService.HasRole(callerID, models.RoleManufacturer) {
		return fmt.Errorf("%w: only manufacturers may recall products", ledger.ErrUnauthorized)
	}

	return s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		now := s.core.Now()

		// Recall is unconditional: recalling an already-recalled product
		// appends another checkpoint and re-emits the notification.
		if err := tx.Model(&product).Update("state", ledger.StateRecalled).Error; err != nil {
			return fmt.Errorf("failed to update product state: %w", err)
		}

		seq, err := nextCheckpointSeq(tx, productID)
		if err != nil {
			return err
		}
		checkpoint := &models.Checkpoint{
			ProductID:  productID,
			Seq:        seq,
			HandlerID:  callerID,
			Location:   s.recallLocation,
			State:      ledger.StateRecalled,
			Notes:      req.Reason,
			RecordedAt: now,
		}
		if err := tx.Create(checkpoint).Error; err != nil {
			return fmt.Errorf("failed to append checkpoint: %w", err)
		}

		emit(ledger.Event{
			Type:      ledger.EventProductRecalled,
			ProductID: productID,
			Actor:     callerID,
			At:        now,
			Data:      map[string]interface{}{"reason": req.Reason},
		})
		return nil
	})
}

func nextCheckpointSeq(tx *gorm.DB, productID uint64) (int, error) {
	var count int64
	if err := tx.Model(&models.Checkpoint{}).
		Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count checkpoints: %w", err)
	}
	return int(count), nil
}

func nextOwnershipSeq(tx *gorm.DB, productID uint64) (int, error) {
	var count int64
	if err := tx.Model(&models.OwnershipEntry{}).
		Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ownership entries: %w", err)
	}
	return int(count), nil
}
