// internal/services/checkpoint_service.go
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

// CheckpointService is the per-product append-only audit log. Adding a
// checkpoint is the only place besides ownership transfer where product state
// mutates, and it checks role only, never current-owner identity.
type CheckpointService struct {
	core        *Ledger
	roleService *RoleService
}

type AddCheckpointRequest struct {
	Location     string              `json:"location" validate:"required,max=255"`
	State        ledger.ProductState `json:"state" validate:"required"`
	Notes        string              `json:"notes,omitempty"`
	TemperatureC *float64            `json:"temperature_c,omitempty"`
	DocumentHash string              `json:"document_hash,omitempty" validate:"omitempty,contenthash"`
}

func NewCheckpointService(core *Ledger, roleService *RoleService) *CheckpointService {
	return &CheckpointService{core: core, roleService: roleService}
}

func (s *CheckpointService) Add(callerID uuid.UUID, productID uint64, req *AddCheckpointRequest) (*models.Checkpoint, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	if !s.roleService.HasAnyRole(callerID, models.OperatingRoles...) {
		return nil, fmt.Errorf("%w: checkpoint requires an operating role", ledger.ErrUnauthorized)
	}

	var checkpoint *models.Checkpoint
	err := s.core.Mutate(func(tx *gorm.DB, emit func(ledger.Event)) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := s.core.ValidateTransition(product.State, req.State); err != nil {
			return err
		}

		now := s.core.Now()
		seq, err := nextCheckpointSeq(tx, productID)
		if err != nil {
			return err
		}

		checkpoint = &models.Checkpoint{
			ProductID:    productID,
			Seq:          seq,
			HandlerID:    callerID,
			Location:     req.Location,
			State:        req.State,
			Notes:        req.Notes,
			TemperatureC: req.TemperatureC,
			DocumentHash: req.DocumentHash,
			RecordedAt:   now,
		}
		if err := tx.Create(checkpoint).Error; err != nil {
			return fmt.Errorf("failed to append checkpoint: %w", err)
		}

		// Product state always mirrors the newest checkpoint.
		if err := tx.Model(&product).Update("state", req.State).Error; err != nil {
			return fmt.Errorf("failed to update product state: %w", err)
		}

		emit(ledger.Event{
			Type:      ledger.EventCheckpointAdded,
			ProductID: productID,
			Actor:     callerID,
			At:        now,
			Data: map[string]interface{}{
				"location": req.Location,
				"state":    string(req.State),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return checkpoint, nil
}

func (s *CheckpointService) List(productID uint64) ([]models.Checkpoint, error) {
	var product models.Product
	if err := s.core.DB().First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ledger.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var checkpoints []models.Checkpoint
	if err := s.core.DB().Where("product_id = ?", productID).
		Order("seq ASC").Find(&checkpoints).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}
	return checkpoints, nil
}
